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
	"slices"
)

const (
	AttributeCredentialType     = "credentialType"
	AttributeSuccessfulHandlers = "successfulAuthenticationHandlers"
)

// Transaction describes the handler execution a populator is asked to decorate.
type Transaction struct {
	Credential Credential
	Handler    string
}

// MetadataPopulator attaches contextual attributes to a successful authentication.
// Implementations must not have side effects.
type MetadataPopulator interface {
	Supports(tx Transaction) bool
	Populate(builder *AuthenticationBuilder, tx Transaction)
}

type PopulatorChain []MetadataPopulator

func (pc PopulatorChain) Populate(builder *AuthenticationBuilder, tx Transaction) {
	for _, populator := range pc {
		if populator.Supports(tx) {
			populator.Populate(builder, tx)
		}
	}
}

type authenticationContextPopulator struct {
	attribute string
	value     string
	handlers  []string
}

// NewAuthenticationContextPopulator records value under attribute whenever one of the given
// handlers (or any handler, if none given) succeeded.
func NewAuthenticationContextPopulator(attribute, value string, handlers ...string) MetadataPopulator {
	return &authenticationContextPopulator{attribute: attribute, value: value, handlers: handlers}
}

func (p *authenticationContextPopulator) Supports(tx Transaction) bool {
	return len(p.handlers) == 0 || slices.Contains(p.handlers, tx.Handler)
}

func (p *authenticationContextPopulator) Populate(builder *AuthenticationBuilder, _ Transaction) {
	builder.AddAttribute(p.attribute, p.value)
}

type credentialTypePopulator struct{}

func NewCredentialTypePopulator() MetadataPopulator { return credentialTypePopulator{} }

func (credentialTypePopulator) Supports(tx Transaction) bool { return tx.Credential != nil }

func (credentialTypePopulator) Populate(builder *AuthenticationBuilder, tx Transaction) {
	builder.AddAttribute(AttributeCredentialType, string(tx.Credential.Variant()))
}

type successfulHandlersPopulator struct{}

func NewSuccessfulHandlersPopulator() MetadataPopulator { return successfulHandlersPopulator{} }

func (successfulHandlersPopulator) Supports(tx Transaction) bool { return len(tx.Handler) != 0 }

func (successfulHandlersPopulator) Populate(builder *AuthenticationBuilder, tx Transaction) {
	builder.AddAttribute(AttributeSuccessfulHandlers, tx.Handler)
}
