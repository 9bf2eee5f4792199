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
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const defaultJWTLeeway = 10 * time.Second

func init() { // nolint: gochecknoinits
	registerTypeFactory(
		func(logger zerolog.Logger, id string, typ string, conf map[string]any) (bool, authn.Handler, error) {
			if typ != HandlerJWT {
				return false, nil, nil
			}

			handler, err := newJWTHandler(logger, id, conf)

			return true, handler, err
		})
}

type jwtHandler struct {
	id         string
	keys       jose.JSONWebKeySet
	issuers    []string
	audience   string
	leeway     time.Duration
	algorithms []jose.SignatureAlgorithm
	clock      func() time.Time
}

func newJWTHandler(logger zerolog.Logger, id string, rawConfig map[string]any) (*jwtHandler, error) {
	logger.Info().Str("_id", id).Msg("Creating jwt handler")

	type Config struct {
		JWKSFile          string         `mapstructure:"jwks_file"          validate:"required"`
		Issuers           []string       `mapstructure:"issuers"            validate:"required,min=1"`
		Audience          string         `mapstructure:"audience"`
		Leeway            *time.Duration `mapstructure:"leeway"`
		AllowedAlgorithms []string       `mapstructure:"allowed_algorithms"`
	}

	var conf Config
	if err := decodeConfig(HandlerJWT, id, rawConfig, &conf); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(conf.JWKSFile)
	if err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed reading jwks file for jwt handler '%s'", id).CausedBy(err)
	}

	var keys jose.JSONWebKeySet
	if err = json.Unmarshal(raw, &keys); err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed parsing jwks file for jwt handler '%s'", id).CausedBy(err)
	}

	if len(keys.Keys) == 0 {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"jwks file for jwt handler '%s' does not contain any keys", id)
	}

	algorithms := supportedAlgorithms()
	if len(conf.AllowedAlgorithms) != 0 {
		algorithms = make([]jose.SignatureAlgorithm, len(conf.AllowedAlgorithms))

		for idx, alg := range conf.AllowedAlgorithms {
			if !slices.Contains(supportedAlgorithms(), jose.SignatureAlgorithm(alg)) {
				return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
					"algorithm '%s' is not supported by jwt handler '%s'", alg, id)
			}

			algorithms[idx] = jose.SignatureAlgorithm(alg)
		}
	}

	leeway := defaultJWTLeeway
	if conf.Leeway != nil {
		leeway = *conf.Leeway
	}

	return &jwtHandler{
		id:         id,
		keys:       keys,
		issuers:    conf.Issuers,
		audience:   conf.Audience,
		leeway:     leeway,
		algorithms: algorithms,
		clock:      time.Now,
	}, nil
}

func supportedAlgorithms() []jose.SignatureAlgorithm {
	return []jose.SignatureAlgorithm{
		// ECDSA
		jose.ES256, jose.ES384, jose.ES512, jose.EdDSA,
		// RSA-PSS
		jose.PS256, jose.PS384, jose.PS512,
		// RSA PKCS1 v1.5
		jose.RS256, jose.RS384, jose.RS512,
	}
}

func (h *jwtHandler) Name() string { return h.id }

func (h *jwtHandler) Variants() []authn.Variant { return []authn.Variant{authn.VariantToken} }

// Supports accepts only tokens in JWS compact serialization.
func (h *jwtHandler) Supports(cred authn.Credential) bool {
	otc, ok := cred.(*authn.OneTimeTokenCredential)
	if !ok {
		return false
	}

	parts := strings.Split(otc.Token(), ".")

	return len(parts) == 3 && !slices.Contains(parts, "") // nolint: mnd
}

func (h *jwtHandler) Authenticate(ctx context.Context, cred authn.Credential) (*authn.Principal, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("_id", h.id).Msg("Authenticating using jwt handler")

	otc, ok := cred.(*authn.OneTimeTokenCredential)
	if !ok {
		return nil, errorchain.NewWithMessage(bifrost.ErrArgument, "unsupported credential").
			WithErrorContext(h)
	}

	token, err := jwt.ParseSigned(otc.Token(), h.algorithms)
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "failed to parse JWT").
			WithErrorContext(h).
			CausedBy(err)
	}

	candidates := h.keys.Keys
	if kid := token.Headers[0].KeyID; len(kid) != 0 {
		candidates = h.keys.Key(kid)
	}

	for idx := range candidates {
		principal, err := h.verify(token, &candidates[idx])
		if err == nil {
			return principal, nil
		}

		logger.Debug().Err(err).Str("_key_id", candidates[idx].KeyID).Msg("Failed to verify JWT")
	}

	return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication,
		"none of the configured keys could be used to verify the JWT").
		WithErrorContext(h)
}

func (h *jwtHandler) verify(token *jwt.JSONWebToken, key *jose.JSONWebKey) (*authn.Principal, error) {
	header := token.Headers[0]

	if len(key.Algorithm) != 0 && key.Algorithm != header.Algorithm {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication,
			"algorithm in the JWT header does not match the algorithm referenced in the key")
	}

	var (
		mapClaims map[string]any
		claims    jwt.Claims
	)

	if err := token.Claims(key, &mapClaims, &claims); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication,
			"failed to verify JWT signature").CausedBy(err)
	}

	if !slices.Contains(h.issuers, claims.Issuer) {
		return nil, errorchain.NewWithMessagef(bifrost.ErrAuthentication,
			"issuer '%s' is not trusted", claims.Issuer)
	}

	expected := jwt.Expected{Time: h.clock()}
	if len(h.audience) != 0 {
		expected.AnyAudience = jwt.Audience{h.audience}
	}

	if err := claims.ValidateWithLeeway(expected, h.leeway); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication,
			"JWT does not satisfy assertion conditions").CausedBy(err)
	}

	if len(claims.Subject) == 0 {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "JWT does not contain a subject")
	}

	attributes := make(map[string][]any)

	for name, value := range mapClaims {
		if str, ok := value.(string); ok {
			attributes[name] = []any{str}
		}
	}

	return authn.NewPrincipal(claims.Subject, attributes), nil
}
