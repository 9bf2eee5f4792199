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

package handlers

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/truststore"
	"github.com/dadrus/bifrost/internal/x"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	principalFromSubjectDN    = "subject_dn"
	principalFromCommonName   = "cn"
	principalFromSerialNumber = "serial_number"
	principalFromEmail        = "email"

	AttributeSubjectDN    = "subjectDn"
	AttributeIssuerDN     = "issuerDn"
	AttributeSerialNumber = "serialNumber"
)

func init() { // nolint: gochecknoinits
	registerTypeFactory(
		func(logger zerolog.Logger, id string, typ string, conf map[string]any) (bool, authn.Handler, error) {
			if typ != HandlerX509 {
				return false, nil, nil
			}

			handler, err := newX509Handler(logger, id, conf)

			return true, handler, err
		})
}

type x509Handler struct {
	id                string
	roots             *x509.CertPool
	requireClientAuth bool
	principalFrom     string
	clock             func() time.Time
}

func newX509Handler(logger zerolog.Logger, id string, rawConfig map[string]any) (*x509Handler, error) {
	logger.Info().Str("_id", id).Msg("Creating x509 handler")

	type Config struct {
		TrustStore        truststore.TrustStore `mapstructure:"trust_store"         validate:"required"`
		RequireClientAuth bool                  `mapstructure:"require_client_auth"`
		PrincipalFrom     string                `mapstructure:"principal_from"      validate:"omitempty,oneof=subject_dn cn serial_number email"` //nolint:lll
	}

	var conf Config
	if err := decodeConfig(HandlerX509, id, rawConfig, &conf, truststore.DecodeTrustStoreHookFunc()); err != nil {
		return nil, err
	}

	return &x509Handler{
		id:                id,
		roots:             conf.TrustStore.CertPool(),
		requireClientAuth: conf.RequireClientAuth,
		principalFrom:     x.IfThenElse(len(conf.PrincipalFrom) == 0, principalFromSubjectDN, conf.PrincipalFrom),
		clock:             time.Now,
	}, nil
}

func (h *x509Handler) Name() string { return h.id }

func (h *x509Handler) Variants() []authn.Variant { return []authn.Variant{authn.VariantCertificate} }

func (h *x509Handler) Supports(cred authn.Credential) bool {
	xc, ok := cred.(*authn.X509CertificateCredential)

	return ok && xc.Certificate() != nil
}

func (h *x509Handler) Authenticate(ctx context.Context, cred authn.Credential) (*authn.Principal, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("_id", h.id).Msg("Authenticating using x509 handler")

	xc, ok := cred.(*authn.X509CertificateCredential)
	if !ok || xc.Certificate() == nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrArgument, "unsupported credential").
			WithErrorContext(h)
	}

	leaf := xc.Certificate()
	intermediates := x509.NewCertPool()

	for _, cert := range xc.Intermediates() {
		intermediates.AddCert(cert)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         h.roots,
		Intermediates: intermediates,
		CurrentTime:   h.clock(),
		KeyUsages: x.IfThenElse(h.requireClientAuth,
			[]x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
			[]x509.ExtKeyUsage{x509.ExtKeyUsageAny}),
	}); err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrAuthentication,
			"failed to verify %s certificate", leaf.Subject.String()).
			WithErrorContext(h).
			CausedBy(err)
	}

	principalID := h.principalID(leaf)
	if len(principalID) == 0 {
		return nil, errorchain.NewWithMessagef(bifrost.ErrAuthentication,
			"certificate does not carry a %s", h.principalFrom).
			WithErrorContext(h)
	}

	return authn.NewPrincipal(principalID, map[string][]any{
		AttributeSubjectDN:    {leaf.Subject.String()},
		AttributeIssuerDN:     {leaf.Issuer.String()},
		AttributeSerialNumber: {leaf.SerialNumber.String()},
	}), nil
}

func (h *x509Handler) principalID(cert *x509.Certificate) string {
	switch h.principalFrom {
	case principalFromCommonName:
		return cert.Subject.CommonName
	case principalFromSerialNumber:
		return cert.SerialNumber.String()
	case principalFromEmail:
		if len(cert.EmailAddresses) == 0 {
			return ""
		}

		return cert.EmailAddresses[0]
	default:
		return cert.Subject.String()
	}
}
