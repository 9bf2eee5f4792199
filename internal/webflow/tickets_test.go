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

package webflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	"github.com/dadrus/bifrost/internal/cache/memory"
	"github.com/dadrus/bifrost/internal/x/testsupport"
)

type brokenCache struct {
	cache.Cache
}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, testsupport.ErrTestPurpose }

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return testsupport.ErrTestPurpose
}

func (brokenCache) Delete(context.Context, string) error { return testsupport.ErrTestPurpose }

func TestTicketRegistry(t *testing.T) {
	t.Parallel()

	// GIVEN
	c, err := memory.NewCache(nil)
	require.NoError(t, err)

	registry := NewTicketRegistry(c, time.Minute)
	ctx := context.Background()
	auth := &authn.Authentication{
		Principal:          authn.NewPrincipal("casuser", map[string][]any{"mail": {"casuser@example.com"}}),
		SuccessfulHandlers: []string{"static"},
		AuthenticatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	// WHEN
	id, err := registry.Create(ctx, auth)

	// THEN
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "TGT-"))

	// WHEN
	loaded, err := registry.Get(ctx, id)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, auth, loaded)

	// WHEN
	require.NoError(t, registry.Destroy(ctx, id))
	_, err = registry.Get(ctx, id)

	// THEN
	require.ErrorIs(t, err, bifrost.ErrArgument)
}

func TestTicketRegistryWithFailingCache(t *testing.T) {
	t.Parallel()

	// GIVEN
	registry := NewTicketRegistry(brokenCache{}, time.Minute)
	ctx := context.Background()

	// WHEN
	_, createErr := registry.Create(ctx, &authn.Authentication{})
	_, getErr := registry.Get(ctx, "TGT-1")
	destroyErr := registry.Destroy(ctx, "TGT-1")

	// THEN
	for _, err := range []error{createErr, getErr, destroyErr} {
		require.ErrorIs(t, err, bifrost.ErrInternal)
		require.ErrorIs(t, err, testsupport.ErrTestPurpose)
	}
}
