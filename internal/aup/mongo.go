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
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dadrus/bifrost/internal/authn"
)

type mongoCollection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type mongoConfig struct {
	URI           string        `mapstructure:"uri"            validate:"required,uri"`
	Database      string        `mapstructure:"database"       validate:"required"`
	Collection    string        `mapstructure:"collection"`
	UsernameField string        `mapstructure:"username_field"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type mongoRepository struct {
	client        *mongo.Client
	collection    mongoCollection
	usernameField string
	attribute     string
	timeout       time.Duration
}

func newMongoRepository(conf map[string]any, attribute string) (*mongoRepository, error) {
	cfg := mongoConfig{Collection: "users", UsernameField: "username", Timeout: defaultTimeout}

	if err := decodeConfig("mongo", conf, &cfg); err != nil {
		return nil, err
	}

	// the client connects lazily on first use
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, configurationError("mongo", err)
	}

	return &mongoRepository{
		client:        client,
		collection:    client.Database(cfg.Database).Collection(cfg.Collection),
		usernameField: cfg.UsernameField,
		attribute:     attribute,
		timeout:       cfg.Timeout,
	}, nil
}

func (r *mongoRepository) IsAccepted(ctx context.Context, principal *authn.Principal) bool {
	if principal == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc bson.M

	err := r.collection.FindOne(ctx,
		bson.M{r.usernameField: principal.ID},
		options.FindOne().SetProjection(bson.M{r.attribute: 1}),
	).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("_principal", principal.ID).
				Msg("Failed reading acceptable usage policy status")
		}

		return false
	}

	return isTrue(doc[r.attribute])
}

func (r *mongoRepository) Submit(ctx context.Context, principal *authn.Principal) bool {
	if principal == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{r.usernameField: principal.ID},
		bson.M{"$set": bson.M{r.attribute: true}},
	)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_principal", principal.ID).
			Msg("Failed storing acceptable usage policy status")

		return false
	}

	return res.MatchedCount != 0
}

func (r *mongoRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	return r.client.Disconnect(ctx)
}
