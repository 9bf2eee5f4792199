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

package aup

import (
	"context"
	"time"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	TypeMemory             = "memory"
	TypePrincipalAttribute = "principal_attribute"
	TypeMongo              = "mongo"
	TypePostgres           = "postgres"

	defaultTimeout = 5 * time.Second
)

// Closer is implemented by repositories holding connections.
type Closer interface {
	Close(ctx context.Context) error
}

func New(conf config.AUPConfig) (Repository, error) {
	switch conf.Repository.Type {
	case TypeMemory, "":
		return newMemoryRepository(), nil
	case TypePrincipalAttribute:
		return newPrincipalAttributeRepository(conf.Attribute), nil
	case TypeMongo:
		return newMongoRepository(conf.Repository.Config, conf.Attribute)
	case TypePostgres:
		return newPostgresRepository(conf.Repository.Config, conf.Attribute)
	default:
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported acceptable usage policy repository type '%s'", conf.Repository.Type)
	}
}

func decodeConfig(typ string, input map[string]any, output any) error {
	if err := encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithValidator(validation.DefaultValidator),
	).DecodeMap(output, input); err != nil {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed decoding %s acceptable usage policy repository config", typ).CausedBy(err)
	}

	return nil
}

func configurationError(typ string, err error) error {
	return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"failed creating %s acceptable usage policy repository", typ).CausedBy(err)
}
