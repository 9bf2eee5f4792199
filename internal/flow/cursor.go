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

package flow

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// Cursor is the persisted position of a suspended execution.
type Cursor struct {
	ExecutionID    string                `json:"execution_id"`
	FlowID         string                `json:"flow_id"`
	StateID        string                `json:"state_id"`
	Attributes     map[string]any        `json:"attributes,omitempty"`
	Authentication *authn.Authentication `json:"authentication,omitempty"`
	ErrorCode      string                `json:"error_code,omitempty"`
}

type CursorStore interface {
	Save(ctx context.Context, cursor *Cursor) error
	Load(ctx context.Context, executionID string) (*Cursor, error)
	Delete(ctx context.Context, executionID string) error
}

type cacheCursorStore struct {
	c   cache.Cache
	ttl time.Duration
}

// NewCursorStore stores cursors in the given cache. Suspended executions expire after ttl.
func NewCursorStore(c cache.Cache, ttl time.Duration) CursorStore {
	return &cacheCursorStore{c: c, ttl: ttl}
}

func (s *cacheCursorStore) Save(ctx context.Context, cursor *Cursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal, "failed encoding execution cursor").
			CausedBy(err)
	}

	if err = s.c.Set(ctx, cursorKey(cursor.ExecutionID), raw, s.ttl); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal, "failed storing execution cursor").
			CausedBy(err)
	}

	return nil
}

func (s *cacheCursorStore) Load(ctx context.Context, executionID string) (*Cursor, error) {
	raw, err := s.c.Get(ctx, cursorKey(executionID))
	if err != nil {
		if errors.Is(err, cache.ErrNoCacheEntry) {
			return nil, errorchain.NewWithMessagef(bifrost.ErrNoSuchExecution,
				"execution '%s' does not exist or has expired", executionID)
		}

		return nil, errorchain.NewWithMessage(bifrost.ErrInternal, "failed loading execution cursor").
			CausedBy(err)
	}

	var cursor Cursor
	if err = json.Unmarshal(raw, &cursor); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrInternal, "failed decoding execution cursor").
			CausedBy(err)
	}

	return &cursor, nil
}

func (s *cacheCursorStore) Delete(ctx context.Context, executionID string) error {
	if err := s.c.Delete(ctx, cursorKey(executionID)); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal, "failed deleting execution cursor").
			CausedBy(err)
	}

	return nil
}

func cursorKey(executionID string) string { return "bifrost:execution:" + executionID }
