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

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/cache"
)

type testCache struct {
	conf map[string]any
}

func (*testCache) Start(context.Context) error                              { return nil }
func (*testCache) Stop(context.Context) error                               { return nil }
func (*testCache) Get(context.Context, string) ([]byte, error)              { return nil, cache.ErrNoCacheEntry }
func (*testCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*testCache) Delete(context.Context, string) error                     { return nil }

func newTestCache(conf map[string]any) (cache.Cache, error) { return &testCache{conf: conf}, nil }

func TestCreateCache(t *testing.T) {
	t.Parallel()

	// GIVEN
	cache.Register("create-test", newTestCache)

	// WHEN
	known, err1 := cache.Create("create-test", map[string]any{"foo": "bar"})
	unknown, err2 := cache.Create("unknown", nil)

	// THEN
	require.NoError(t, err1)
	assert.Equal(t, map[string]any{"foo": "bar"}, known.(*testCache).conf) // nolint: forcetypeassert

	require.ErrorIs(t, err2, cache.ErrUnsupportedCacheType)
	require.ErrorContains(t, err2, "'unknown'")
	require.ErrorContains(t, err2, "create-test")
	assert.Nil(t, unknown)
}

func TestRegisterCache(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc  string
		typ string
		fn  cache.Constructor
	}{
		{uc: "nil constructor", typ: "nil-test", fn: nil},
		{uc: "duplicate type", typ: "dup-test", fn: newTestCache},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			if tc.fn != nil {
				cache.Register(tc.typ, tc.fn)
			}

			assert.Panics(t, func() { cache.Register(tc.typ, tc.fn) })
		})
	}
}

func TestTypesAreSorted(t *testing.T) {
	t.Parallel()

	// GIVEN
	cache.Register("types-test-b", newTestCache)
	cache.Register("types-test-a", newTestCache)

	// WHEN
	types := cache.Types()

	// THEN
	assert.Subset(t, types, []string{"types-test-a", "types-test-b"})
	assert.IsNonDecreasing(t, types)
}
