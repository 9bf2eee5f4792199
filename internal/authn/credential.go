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
	"crypto/x509"
	"slices"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// Variant tags the kind of proof a credential carries. The set is closed.
type Variant string

const (
	VariantPassword    Variant = "password"
	VariantCertificate Variant = "certificate"
	VariantToken       Variant = "token"
)

func Variants() []Variant { return []Variant{VariantPassword, VariantCertificate, VariantToken} }

func ParseVariant(value string) (Variant, error) {
	variant := Variant(value)
	if !slices.Contains(Variants(), variant) {
		return "", errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported credential variant '%s'", value)
	}

	return variant, nil
}

// Credential is the user supplied proof of identity. Implementations are immutable.
type Credential interface {
	// ID returns an identifier usable for downstream lookups, like a username.
	ID() string
	Variant() Variant

	credential()
}

type UsernamePasswordCredential struct {
	username string
	password string
}

func NewUsernamePasswordCredential(username, password string) *UsernamePasswordCredential {
	return &UsernamePasswordCredential{username: username, password: password}
}

func (c *UsernamePasswordCredential) ID() string       { return c.username }
func (c *UsernamePasswordCredential) Password() string { return c.password }
func (c *UsernamePasswordCredential) Variant() Variant { return VariantPassword }
func (c *UsernamePasswordCredential) credential()      {}

type X509CertificateCredential struct {
	chain []*x509.Certificate
}

// NewX509CertificateCredential expects the leaf certificate to be the first element.
func NewX509CertificateCredential(chain ...*x509.Certificate) *X509CertificateCredential {
	return &X509CertificateCredential{chain: slices.Clone(chain)}
}

func (c *X509CertificateCredential) ID() string {
	if leaf := c.Certificate(); leaf != nil {
		return leaf.Subject.String()
	}

	return ""
}

func (c *X509CertificateCredential) Certificate() *x509.Certificate {
	if len(c.chain) == 0 {
		return nil
	}

	return c.chain[0]
}

func (c *X509CertificateCredential) Intermediates() []*x509.Certificate {
	if len(c.chain) < 2 { // nolint: mnd
		return nil
	}

	return slices.Clone(c.chain[1:])
}

func (c *X509CertificateCredential) Variant() Variant { return VariantCertificate }
func (c *X509CertificateCredential) credential()      {}

// OneTimeTokenCredential carries a token together with the identifier of the user
// the token has been issued for, if known.
type OneTimeTokenCredential struct {
	token      string
	identifier string
}

func NewOneTimeTokenCredential(token, identifier string) *OneTimeTokenCredential {
	return &OneTimeTokenCredential{token: token, identifier: identifier}
}

func (c *OneTimeTokenCredential) ID() string       { return c.identifier }
func (c *OneTimeTokenCredential) Token() string    { return c.token }
func (c *OneTimeTokenCredential) Variant() Variant { return VariantToken }
func (c *OneTimeTokenCredential) credential()      {}
