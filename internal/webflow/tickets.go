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
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const ticketGrantingTicketPrefix = "TGT-"

// TicketRegistry keeps the authentications of established single sign-on sessions.
type TicketRegistry struct {
	c   cache.Cache
	ttl time.Duration
}

func NewTicketRegistry(c cache.Cache, ttl time.Duration) *TicketRegistry {
	return &TicketRegistry{c: c, ttl: ttl}
}

func (r *TicketRegistry) Create(ctx context.Context, auth *authn.Authentication) (string, error) {
	raw, err := json.Marshal(auth)
	if err != nil {
		return "", errorchain.NewWithMessage(bifrost.ErrInternal, "failed encoding authentication").
			CausedBy(err)
	}

	id := ticketGrantingTicketPrefix + uuid.NewString()

	if err = r.c.Set(ctx, ticketKey(id), raw, r.ttl); err != nil {
		return "", errorchain.NewWithMessage(bifrost.ErrInternal, "failed storing ticket granting ticket").
			CausedBy(err)
	}

	return id, nil
}

func (r *TicketRegistry) Get(ctx context.Context, id string) (*authn.Authentication, error) {
	raw, err := r.c.Get(ctx, ticketKey(id))
	if err != nil {
		if errors.Is(err, cache.ErrNoCacheEntry) {
			return nil, errorchain.NewWithMessagef(bifrost.ErrArgument,
				"ticket granting ticket '%s' does not exist or has expired", id)
		}

		return nil, errorchain.NewWithMessage(bifrost.ErrInternal, "failed loading ticket granting ticket").
			CausedBy(err)
	}

	var auth authn.Authentication
	if err = json.Unmarshal(raw, &auth); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrInternal, "failed decoding authentication").
			CausedBy(err)
	}

	return &auth, nil
}

func (r *TicketRegistry) Destroy(ctx context.Context, id string) error {
	if err := r.c.Delete(ctx, ticketKey(id)); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal, "failed removing ticket granting ticket").
			CausedBy(err)
	}

	return nil
}

func ticketKey(id string) string { return "bifrost:tgt:" + id }
