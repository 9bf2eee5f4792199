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

package memory

import (
	"bytes"
	"context"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/jellydator/ttlcache/v3"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	"github.com/dadrus/bifrost/internal/encoding"
	"github.com/dadrus/bifrost/internal/x"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	defaultMaxMemory = 128 * bytesize.MB

	// key and value headers plus the bookkeeping ttlcache does per item.
	itemOverhead = 184
)

func init() { // nolint: gochecknoinits
	cache.Register("memory", NewCache)
}

type options struct {
	MaxEntries uint64             `mapstructure:"max_entries"`
	MaxMemory  *bytesize.ByteSize `mapstructure:"max_memory"`
}

func (o options) memoryLimit() uint64 {
	return x.IfThenElseExec(o.MaxMemory == nil,
		func() uint64 { return uint64(defaultMaxMemory) },
		func() uint64 { return uint64(*o.MaxMemory) },
	)
}

func decodeOptions(conf map[string]any) (options, error) {
	var opts options

	if len(conf) == 0 {
		return opts, nil
	}

	dec := encoding.NewDecoder(
		encoding.WithErrorOnUnused(true),
		encoding.WithDecodeHooks(encoding.StringToByteSizeHookFunc()),
	)

	if err := dec.DecodeMap(&opts, conf); err != nil {
		return opts, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"failed decoding memory cache config").CausedBy(err)
	}

	return opts, nil
}

func itemCost(item ttlcache.CostItem[string, []byte]) uint64 {
	return uint64(len(item.Key) + len(item.Value) + itemOverhead) //nolint:gosec
}

// NewCache creates a process local store. Entries are evicted on expiry, when max_entries
// is exceeded, or when their accumulated size exceeds max_memory.
func NewCache(conf map[string]any) (cache.Cache, error) {
	opts, err := decodeOptions(conf)
	if err != nil {
		return nil, err
	}

	return &Cache{
		entries: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
			ttlcache.WithCapacity[string, []byte](opts.MaxEntries),
			ttlcache.WithMaxCost[string, []byte](opts.memoryLimit(), itemCost),
		),
	}, nil
}

// Cache hands out copies of the stored values, so a caller mutating a snapshot it has read
// cannot change what other readers see.
type Cache struct {
	entries *ttlcache.Cache[string, []byte]
}

func (c *Cache) Start(_ context.Context) error {
	go c.entries.Start()

	return nil
}

func (c *Cache) Stop(_ context.Context) error {
	c.entries.Stop()

	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	item := c.entries.Get(key)
	if item == nil || item.IsExpired() {
		return nil, cache.ErrNoCacheEntry
	}

	return bytes.Clone(item.Value()), nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries.Set(key, bytes.Clone(value), ttl)

	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.entries.Delete(key)

	return nil
}
