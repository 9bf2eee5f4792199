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
	"fmt"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/authy"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	defaultAuthyAPIURL  = "https://api.authy.com"
	defaultAuthyTimeout = 5 * time.Second
)

func init() { // nolint: gochecknoinits
	registerTypeFactory(
		func(logger zerolog.Logger, id string, typ string, conf map[string]any) (bool, authn.Handler, error) {
			if typ != HandlerAuthy {
				return false, nil, nil
			}

			handler, err := newAuthyHandler(logger, id, conf)

			return true, handler, err
		})
}

type authyClient interface {
	VerifyToken(ctx context.Context, authyID, token string) error
	RegisterUser(ctx context.Context, email, phone string, countryCode int) (string, error)
	Ping(ctx context.Context) error
}

type authyHandler struct {
	id             string
	client         authyClient
	timeout        time.Duration
	idAttribute    string
	emailAttribute string
	phoneAttribute string
	countryCode    int
}

func newAuthyHandler(logger zerolog.Logger, id string, rawConfig map[string]any) (*authyHandler, error) {
	logger.Info().Str("_id", id).Msg("Creating authy handler")

	type Config struct {
		APIURL         string        `mapstructure:"api_url"         validate:"omitempty,url"`
		APIKey         string        `mapstructure:"api_key"         validate:"required"`
		Timeout        time.Duration `mapstructure:"timeout"`
		IDAttribute    string        `mapstructure:"id_attribute"`
		EmailAttribute string        `mapstructure:"email_attribute"`
		PhoneAttribute string        `mapstructure:"phone_attribute"`
		CountryCode    int           `mapstructure:"country_code"    validate:"gte=0"`
	}

	conf := Config{
		APIURL:         defaultAuthyAPIURL,
		Timeout:        defaultAuthyTimeout,
		IDAttribute:    "authyID",
		EmailAttribute: "mail",
		PhoneAttribute: "phone",
		CountryCode:    1,
	}

	if err := decodeConfig(HandlerAuthy, id, rawConfig, &conf); err != nil {
		return nil, err
	}

	client, err := authy.NewClient(conf.APIURL, conf.APIKey)
	if err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed creating client for authy handler '%s'", id).CausedBy(err)
	}

	return &authyHandler{
		id:             id,
		client:         client,
		timeout:        conf.Timeout,
		idAttribute:    conf.IDAttribute,
		emailAttribute: conf.EmailAttribute,
		phoneAttribute: conf.PhoneAttribute,
		countryCode:    conf.CountryCode,
	}, nil
}

func (h *authyHandler) Name() string { return h.id }

func (h *authyHandler) Variants() []authn.Variant { return []authn.Variant{authn.VariantToken} }

// Supports accepts numeric tokens only.
func (h *authyHandler) Supports(cred authn.Credential) bool {
	otc, ok := cred.(*authn.OneTimeTokenCredential)
	if !ok || len(otc.Token()) == 0 || len(otc.ID()) == 0 {
		return false
	}

	for _, r := range otc.Token() {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// Authenticate verifies the token of the user registered under the credential's identifier.
func (h *authyHandler) Authenticate(ctx context.Context, cred authn.Credential) (*authn.Principal, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("_id", h.id).Msg("Authenticating using authy handler")

	otc, ok := cred.(*authn.OneTimeTokenCredential)
	if !ok {
		return nil, errorchain.NewWithMessage(bifrost.ErrArgument, "unsupported credential").
			WithErrorContext(h)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.client.VerifyToken(ctx, otc.ID(), otc.Token()); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "authy token verification failed").
			WithErrorContext(h).
			CausedBy(err)
	}

	return authn.NewPrincipal(otc.ID(), nil), nil
}

// Challenge returns the authy id of the principal, registering the principal with authy if required.
func (h *authyHandler) Challenge(ctx context.Context, principal *authn.Principal) (string, error) {
	if values, ok := principal.Attribute(h.idAttribute); ok {
		return fmt.Sprint(values[0]), nil
	}

	email, emailPresent := principal.Attribute(h.emailAttribute)
	phone, phonePresent := principal.Attribute(h.phoneAttribute)

	if !emailPresent || !phonePresent {
		return "", errorchain.NewWithMessagef(bifrost.ErrArgument,
			"principal '%s' can not be registered with authy, '%s' or '%s' attribute is missing",
			principal.ID, h.emailAttribute, h.phoneAttribute).
			WithErrorContext(h)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	authyID, err := h.client.RegisterUser(ctx, fmt.Sprint(email[0]), fmt.Sprint(phone[0]), h.countryCode)
	if err != nil {
		return "", errorchain.NewWithMessagef(bifrost.ErrCommunication,
			"failed registering principal '%s' with authy", principal.ID).
			WithErrorContext(h).
			CausedBy(err)
	}

	zerolog.Ctx(ctx).Info().Str("_id", h.id).Str("_principal", principal.ID).
		Msg("Principal registered with authy")

	return authyID, nil
}

// Available reports whether the authy api can be reached within the configured timeout.
func (h *authyHandler) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.client.Ping(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_id", h.id).Msg("Authy is not available")

		return false
	}

	return true
}
