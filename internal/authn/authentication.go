// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package authn

import (
	"reflect"
	"slices"
	"time"
)

type CredentialMetadata struct {
	ID      string  `json:"id"`
	Variant Variant `json:"variant"`
}

// Authentication is the outcome of one or more successful handler executions.
type Authentication struct {
	Principal          *Principal           `json:"principal"`
	Credentials        []CredentialMetadata `json:"credentials"`
	Attributes         map[string][]any     `json:"attributes,omitempty"`
	SuccessfulHandlers []string             `json:"successful_handlers"`
	AuthenticatedAt    time.Time            `json:"authenticated_at"`
}

func (a *Authentication) Attribute(name string) ([]any, bool) {
	if a == nil {
		return nil, false
	}

	values, ok := a.Attributes[name]

	return values, ok && len(values) != 0
}

func (a *Authentication) HasSuccessfulHandler(name string) bool {
	return a != nil && slices.Contains(a.SuccessfulHandlers, name)
}

func (a *Authentication) HasCredentialVariant(variant Variant) bool {
	if a == nil {
		return false
	}

	return slices.ContainsFunc(a.Credentials, func(cm CredentialMetadata) bool { return cm.Variant == variant })
}

// AuthenticationBuilder collects the result of an authentication attempt. Attributes can only
// be added, never removed or replaced.
type AuthenticationBuilder struct {
	principal       *Principal
	credentials     []CredentialMetadata
	attributes      map[string][]any
	handlers        []string
	authenticatedAt time.Time
}

func NewAuthenticationBuilder(principal *Principal, authenticatedAt time.Time) *AuthenticationBuilder {
	return &AuthenticationBuilder{
		principal:       principal,
		attributes:      make(map[string][]any),
		authenticatedAt: authenticatedAt,
	}
}

// NewAuthenticationBuilderFrom continues a previous authentication, e.g. the primary one
// when a multifactor credential has been verified.
func NewAuthenticationBuilderFrom(previous *Authentication, authenticatedAt time.Time) *AuthenticationBuilder {
	builder := NewAuthenticationBuilder(previous.Principal, authenticatedAt)
	builder.credentials = slices.Clone(previous.Credentials)
	builder.handlers = slices.Clone(previous.SuccessfulHandlers)
	builder.attributes = cloneAttributes(previous.Attributes)

	if builder.attributes == nil {
		builder.attributes = make(map[string][]any)
	}

	return builder
}

func (b *AuthenticationBuilder) Principal() *Principal { return b.principal }

func (b *AuthenticationBuilder) AddCredential(cred Credential) *AuthenticationBuilder {
	b.credentials = append(b.credentials, CredentialMetadata{ID: cred.ID(), Variant: cred.Variant()})

	return b
}

func (b *AuthenticationBuilder) AddSuccessfulHandler(name string) *AuthenticationBuilder {
	if !slices.Contains(b.handlers, name) {
		b.handlers = append(b.handlers, name)
	}

	return b
}

// AddAttribute appends the given values to the attribute. Values already present are kept.
func (b *AuthenticationBuilder) AddAttribute(name string, values ...any) *AuthenticationBuilder {
	existing := b.attributes[name]

	for _, value := range values {
		if !slices.ContainsFunc(existing, func(v any) bool { return reflect.DeepEqual(v, value) }) {
			existing = append(existing, value)
		}
	}

	b.attributes[name] = existing

	return b
}

func (b *AuthenticationBuilder) Attributes() map[string][]any { return cloneAttributes(b.attributes) }

func (b *AuthenticationBuilder) Build() *Authentication {
	return &Authentication{
		Principal:          b.principal,
		Credentials:        slices.Clone(b.credentials),
		Attributes:         cloneAttributes(b.attributes),
		SuccessfulHandlers: slices.Clone(b.handlers),
		AuthenticatedAt:    b.authenticatedAt,
	}
}
