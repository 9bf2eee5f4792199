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
	"errors"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	HandlerStaticUsers = "static_users"
	HandlerX509        = "x509"
	HandlerJWT         = "jwt"
	HandlerAuthy       = "authy"
)

var (
	ErrUnsupportedHandlerType = errors.New("handler type unsupported")

	// by intention. Used only during application bootstrap.
	typeFactories   []TypeFactory //nolint:gochecknoglobals
	typeFactoriesMu sync.RWMutex  //nolint:gochecknoglobals
)

type TypeFactory func(logger zerolog.Logger, id string, typ string, conf map[string]any) (bool, authn.Handler, error)

func registerTypeFactory(factory TypeFactory) {
	typeFactoriesMu.Lock()
	defer typeFactoriesMu.Unlock()

	if factory == nil {
		panic("handler type factory is nil")
	}

	typeFactories = append(typeFactories, factory)
}

func Create(logger zerolog.Logger, id string, typ string, conf map[string]any) (authn.Handler, error) {
	typeFactoriesMu.RLock()
	defer typeFactoriesMu.RUnlock()

	for _, create := range typeFactories {
		if ok, handler, err := create(logger, id, typ, conf); ok {
			return handler, err
		}
	}

	return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"failed creating handler '%s'", id).CausedBy(
		errorchain.NewWithMessagef(ErrUnsupportedHandlerType, "'%s'", typ))
}

// Configurer creates and registers the configured handlers in the order of their definition.
func Configurer(logger zerolog.Logger, conf []config.HandlerConfig) authn.Configurer {
	return authn.ConfigurerFunc(func(registry *authn.Registry) error {
		for _, hc := range conf {
			handler, err := Create(logger, hc.ID, hc.Type, hc.Config)
			if err != nil {
				return err
			}

			if err = registry.Register(handler); err != nil {
				return err
			}
		}

		return nil
	})
}

func decodeConfig(typ, id string, input map[string]any, output any, hooks ...mapstructure.DecodeHookFunc) error {
	dec := encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithValidator(validation.DefaultValidator),
		encoding.WithDecodeHooks(append([]mapstructure.DecodeHookFunc{
			mapstructure.StringToTimeDurationHookFunc(),
		}, hooks...)...),
	)

	if err := dec.DecodeMap(output, input); err != nil {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed decoding config for %s handler '%s'", typ, id).CausedBy(err)
	}

	return nil
}
