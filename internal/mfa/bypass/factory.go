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

package bypass

import (
	"time"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	TypeNever                   = "never"
	TypePrincipalAttribute      = "principal_attribute"
	TypeAuthenticationAttribute = "authentication_attribute"
	TypeAuthenticationHandler   = "authentication_handler"
	TypeCredentialType          = "credential_type"
	TypeRecentAuthentication    = "recent_authentication"
	TypeRemoteAddress           = "remote_address"
	TypeHTTPHeader              = "http_header"
	TypeCEL                     = "cel"
)

// NewFromConfig creates a composite of all configured evaluators.
func NewFromConfig(confs []config.Backend) (Evaluator, error) {
	evaluators := make([]Evaluator, 0, len(confs))

	for _, conf := range confs {
		evaluator, err := New(conf)
		if err != nil {
			return nil, err
		}

		evaluators = append(evaluators, evaluator)
	}

	return Composite(evaluators...), nil
}

func New(conf config.Backend) (Evaluator, error) { // nolint: cyclop
	type Config struct {
		Name       string        `mapstructure:"name"`
		Pattern    string        `mapstructure:"value_pattern"`
		Handlers   []string      `mapstructure:"handlers"`
		Variants   []string      `mapstructure:"variants"`
		MaxAge     time.Duration `mapstructure:"max_age"`
		Networks   []string      `mapstructure:"networks"`
		Expression string        `mapstructure:"expression"`
	}

	var (
		cfg       Config
		evaluator Evaluator
		err       error
	)

	if err = encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithValidator(validation.DefaultValidator),
	).DecodeMap(&cfg, conf.Config); err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed decoding '%s' bypass config", conf.Type).CausedBy(err)
	}

	switch conf.Type {
	case TypeNever:
		evaluator = Never()
	case TypePrincipalAttribute:
		err = require(conf.Type, "name", len(cfg.Name) != 0)
		if err == nil {
			evaluator, err = PrincipalAttribute(cfg.Name, cfg.Pattern)
		}
	case TypeAuthenticationAttribute:
		err = require(conf.Type, "name", len(cfg.Name) != 0)
		if err == nil {
			evaluator, err = AuthenticationAttribute(cfg.Name, cfg.Pattern)
		}
	case TypeAuthenticationHandler:
		err = require(conf.Type, "handlers", len(cfg.Handlers) != 0)
		evaluator = AuthenticationHandler(cfg.Handlers...)
	case TypeCredentialType:
		evaluator, err = newCredentialTypeEvaluator(conf.Type, cfg.Variants)
	case TypeRecentAuthentication:
		err = require(conf.Type, "max_age", cfg.MaxAge > 0)
		evaluator = RecentAuthentication(cfg.MaxAge)
	case TypeRemoteAddress:
		err = require(conf.Type, "networks", len(cfg.Networks) != 0)
		if err == nil {
			evaluator, err = RemoteAddress(cfg.Networks...)
		}
	case TypeHTTPHeader:
		err = require(conf.Type, "name", len(cfg.Name) != 0)
		if err == nil {
			evaluator, err = HTTPHeader(cfg.Name, cfg.Pattern)
		}
	case TypeCEL:
		err = require(conf.Type, "expression", len(cfg.Expression) != 0)
		if err == nil {
			evaluator, err = CEL(cfg.Expression)
		}
	default:
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported bypass type '%s'", conf.Type)
	}

	if err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed creating '%s' bypass", conf.Type).CausedBy(err)
	}

	return evaluator, nil
}

func newCredentialTypeEvaluator(typ string, values []string) (Evaluator, error) {
	if err := require(typ, "variants", len(values) != 0); err != nil {
		return nil, err
	}

	variants := make([]authn.Variant, len(values))

	for idx, value := range values {
		variant, err := authn.ParseVariant(value)
		if err != nil {
			return nil, err
		}

		variants[idx] = variant
	}

	return CredentialType(variants...), nil
}

func require(typ, property string, present bool) error {
	if present {
		return nil
	}

	return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"'%s' is required for '%s' bypass", property, typ)
}
