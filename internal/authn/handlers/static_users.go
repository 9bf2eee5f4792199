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

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// dummyHash is compared against when the user is unknown, so that unknown and known
// users cost the same.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // nolint: gosec

func init() { // nolint: gochecknoinits
	registerTypeFactory(
		func(logger zerolog.Logger, id string, typ string, conf map[string]any) (bool, authn.Handler, error) {
			if typ != HandlerStaticUsers {
				return false, nil, nil
			}

			handler, err := newStaticUsersHandler(logger, id, conf)

			return true, handler, err
		})
}

type staticUser struct {
	Password   string           `mapstructure:"password"   validate:"required"`
	Attributes map[string][]any `mapstructure:"attributes"`
}

type staticUsersHandler struct {
	id    string
	users map[string]staticUser
}

func newStaticUsersHandler(logger zerolog.Logger, id string, rawConfig map[string]any) (*staticUsersHandler, error) {
	logger.Info().Str("_id", id).Msg("Creating static_users handler")

	type Config struct {
		Users     map[string]staticUser `mapstructure:"users"      validate:"required_without=UsersFile,dive"`
		UsersFile string                `mapstructure:"users_file" validate:"required_without=Users"`
	}

	var conf Config
	if err := decodeConfig(HandlerStaticUsers, id, rawConfig, &conf); err != nil {
		return nil, err
	}

	users := make(map[string]staticUser, len(conf.Users))
	for name, user := range conf.Users {
		users[name] = user
	}

	if len(conf.UsersFile) != 0 {
		fromFile, err := loadUsers(conf.UsersFile)
		if err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed loading users for static_users handler '%s'", id).CausedBy(err)
		}

		for name, user := range fromFile {
			users[name] = user
		}
	}

	for name, user := range users {
		if _, err := bcrypt.Cost([]byte(user.Password)); err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"password of user '%s' in static_users handler '%s' is not a bcrypt hash", name, id).
				CausedBy(err)
		}
	}

	return &staticUsersHandler{id: id, users: users}, nil
}

func loadUsers(path string) (map[string]staticUser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	type UsersFile struct {
		Users map[string]staticUser `mapstructure:"users" validate:"required,dive"`
	}

	var usersFile UsersFile

	dec := encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithEnvVarsSubstitution(true),
		encoding.WithValidator(validation.DefaultValidator),
	)

	if err = dec.Decode(&usersFile, file); err != nil {
		return nil, err
	}

	return usersFile.Users, nil
}

func (h *staticUsersHandler) Name() string { return h.id }

func (h *staticUsersHandler) Variants() []authn.Variant { return []authn.Variant{authn.VariantPassword} }

func (h *staticUsersHandler) Supports(cred authn.Credential) bool {
	_, ok := cred.(*authn.UsernamePasswordCredential)

	return ok
}

func (h *staticUsersHandler) Authenticate(ctx context.Context, cred authn.Credential) (*authn.Principal, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("_id", h.id).Msg("Authenticating using static_users handler")

	upc, ok := cred.(*authn.UsernamePasswordCredential)
	if !ok {
		return nil, errorchain.NewWithMessage(bifrost.ErrArgument, "unsupported credential").
			WithErrorContext(h)
	}

	user, known := h.users[upc.ID()]
	hash := user.Password

	if !known {
		hash = dummyHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(upc.Password()))
	if err != nil || !known {
		return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "invalid username or password").
			WithErrorContext(h).
			CausedBy(err)
	}

	return authn.NewPrincipal(upc.ID(), user.Attributes), nil
}
