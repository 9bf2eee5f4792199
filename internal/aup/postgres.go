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
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresConfig struct {
	DSN            string        `mapstructure:"dsn"             validate:"required"`
	Table          string        `mapstructure:"table"`
	UsernameColumn string        `mapstructure:"username_column"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type postgresRepository struct {
	pool      *pgxpool.Pool
	db        pgExecutor
	timeout   time.Duration
	selectSQL string
	updateSQL string
}

func newPostgresRepository(conf map[string]any, attribute string) (*postgresRepository, error) {
	cfg := postgresConfig{Table: "users", UsernameColumn: "username", Timeout: defaultTimeout}

	if err := decodeConfig("postgres", conf, &cfg); err != nil {
		return nil, err
	}

	// the pool establishes connections on demand
	pool, err := pgxpool.New(context.Background(), cfg.DSN)
	if err != nil {
		return nil, configurationError("postgres", err)
	}

	repo := newPostgresRepositoryWith(pool, cfg, attribute)
	repo.pool = pool

	return repo, nil
}

func newPostgresRepositoryWith(db pgExecutor, cfg postgresConfig, attribute string) *postgresRepository {
	table := pgx.Identifier{cfg.Table}.Sanitize()
	column := pgx.Identifier{attribute}.Sanitize()
	username := pgx.Identifier{cfg.UsernameColumn}.Sanitize()

	return &postgresRepository{
		db:        db,
		timeout:   cfg.Timeout,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", column, table, username),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s = true WHERE %s = $1", table, column, username),
	}
}

func (r *postgresRepository) IsAccepted(ctx context.Context, principal *authn.Principal) bool {
	if principal == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var accepted *bool

	if err := r.db.QueryRow(ctx, r.selectSQL, principal.ID).Scan(&accepted); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("_principal", principal.ID).
				Msg("Failed reading acceptable usage policy status")
		}

		return false
	}

	return accepted != nil && *accepted
}

func (r *postgresRepository) Submit(ctx context.Context, principal *authn.Principal) bool {
	if principal == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, r.updateSQL, principal.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_principal", principal.ID).
			Msg("Failed storing acceptable usage policy status")

		return false
	}

	return tag.RowsAffected() == 1
}

func (r *postgresRepository) Close(context.Context) error {
	if r.pool != nil {
		r.pool.Close()
	}

	return nil
}
