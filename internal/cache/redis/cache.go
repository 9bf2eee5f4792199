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

package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
	"github.com/dadrus/bifrost/internal/x/stringx"
)

func init() { // nolint: gochecknoinits
	cache.Register("redis", NewCache)
}

type clientCache struct {
	Disabled bool          `mapstructure:"disabled"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type tlsConfig struct {
	Disabled bool `mapstructure:"disabled"`
}

type config struct {
	Address     string        `mapstructure:"address"      validate:"required"`
	DB          int           `mapstructure:"db"`
	Credentials *credentials  `mapstructure:"credentials"`
	ClientCache clientCache   `mapstructure:"client_cache"`
	Timeout     time.Duration `mapstructure:"timeout"`
	TLS         tlsConfig     `mapstructure:"tls"`
}

// rootCertPool is nil outside of tests, meaning the system pool is used.
var rootCertPool *x509.CertPool //nolint:gochecknoglobals

func NewCache(conf map[string]any) (cache.Cache, error) {
	cfg := config{ClientCache: clientCache{TTL: 5 * time.Minute}} //nolint:mnd

	dec := encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithValidator(validation.DefaultValidator),
	)

	if err := dec.DecodeMap(&cfg, conf); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"failed decoding redis cache config").CausedBy(err)
	}

	opts := rueidis.ClientOption{
		ClientName:       "bifrost",
		InitAddress:      []string{cfg.Address},
		SelectDB:         cfg.DB,
		DisableCache:     cfg.ClientCache.Disabled,
		ConnWriteTimeout: cfg.Timeout,
		DialFn: func(addr string, dialer *net.Dialer, _ *tls.Config) (net.Conn, error) {
			if cfg.TLS.Disabled {
				return dialer.Dial("tcp", addr)
			}

			return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
				MinVersion: tls.VersionTLS13,
				RootCAs:    rootCertPool,
			})
		},
	}

	if cfg.Credentials != nil {
		opts.Username = cfg.Credentials.Username
		opts.Password = cfg.Credentials.Password
	}

	client, err := rueidisotel.NewClient(opts)
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrInternal,
			"failed creating redis client").CausedBy(err)
	}

	return &Cache{c: client, ttl: cfg.ClientCache.TTL}, nil
}

type Cache struct {
	c   rueidis.Client
	ttl time.Duration
}

func (c *Cache) Start(_ context.Context) error {
	// not used for Redis.
	return nil
}

func (c *Cache) Stop(_ context.Context) error {
	c.c.Close()

	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.c.DoCache(ctx, c.c.B().Get().Key(key).Cache(), c.ttl).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, cache.ErrNoCacheEntry
		}

		return nil, err
	}

	return stringx.ToBytes(val), nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.c.Do(ctx, c.c.B().Set().Key(key).Value(stringx.ToString(value)).Px(ttl).Build()).Error()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.c.Do(ctx, c.c.B().Del().Key(key).Build()).Error()
}
