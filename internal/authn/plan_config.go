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
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	ResolverByCredentialType = "by_credential_type"
	ResolverByName           = "by_name"

	PopulatorAuthenticationContext = "authentication_context"
	PopulatorCredentialType        = "credential_type"
	PopulatorSuccessfulHandlers    = "successful_handlers"
)

// PlanConfigurer registers the resolvers and populators defined in the configuration.
func PlanConfigurer(conf config.AuthenticationConfig) Configurer {
	return ConfigurerFunc(func(registry *Registry) error {
		for _, rc := range conf.Resolvers {
			resolver, err := NewResolver(rc)
			if err != nil {
				return err
			}

			registry.RegisterResolver(resolver)
		}

		for _, pc := range conf.Populators {
			populator, err := NewPopulator(pc)
			if err != nil {
				return err
			}

			registry.RegisterPopulator(populator)
		}

		return nil
	})
}

func NewResolver(conf config.Backend) (Resolver, error) {
	type Config struct {
		Variants []string `mapstructure:"variants"`
		Handlers []string `mapstructure:"handlers" validate:"required_if=Type by_name"`
		Type     string   `mapstructure:"-"`
	}

	resolverConf := Config{Type: conf.Type}
	if err := decodeConfig(conf.Config, &resolverConf); err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed decoding '%s' resolver config", conf.Type).CausedBy(err)
	}

	variants := make([]Variant, len(resolverConf.Variants))

	for idx, value := range resolverConf.Variants {
		variant, err := ParseVariant(value)
		if err != nil {
			return nil, err
		}

		variants[idx] = variant
	}

	switch conf.Type {
	case ResolverByCredentialType:
		return ByCredentialType(variants...), nil
	case ResolverByName:
		return ByName(resolverConf.Handlers, variants...), nil
	default:
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported resolver type '%s'", conf.Type)
	}
}

func NewPopulator(conf config.Backend) (MetadataPopulator, error) {
	switch conf.Type {
	case PopulatorAuthenticationContext:
		type Config struct {
			Attribute string   `mapstructure:"attribute" validate:"required"`
			Value     string   `mapstructure:"value"     validate:"required"`
			Handlers  []string `mapstructure:"handlers"`
		}

		var populatorConf Config
		if err := decodeConfig(conf.Config, &populatorConf); err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed decoding '%s' populator config", conf.Type).CausedBy(err)
		}

		return NewAuthenticationContextPopulator(
			populatorConf.Attribute, populatorConf.Value, populatorConf.Handlers...), nil
	case PopulatorCredentialType:
		return NewCredentialTypePopulator(), nil
	case PopulatorSuccessfulHandlers:
		return NewSuccessfulHandlersPopulator(), nil
	default:
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported populator type '%s'", conf.Type)
	}
}

func decodeConfig(input map[string]any, output any) error {
	return encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithValidator(validation.DefaultValidator),
	).DecodeMap(output, input)
}
