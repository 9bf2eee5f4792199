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

package consent

import (
	"context"
	"sync"
)

type Repository interface {
	Find(ctx context.Context, principal, service string) (*Decision, error)
	Store(ctx context.Context, decision *Decision) error
}

type decisionKey struct {
	principal string
	service   string
}

type inMemoryRepository struct {
	mut       sync.RWMutex
	decisions map[decisionKey]Decision
}

func NewInMemoryRepository() Repository {
	return &inMemoryRepository{decisions: make(map[decisionKey]Decision)}
}

func (r *inMemoryRepository) Find(_ context.Context, principal, service string) (*Decision, error) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	decision, ok := r.decisions[decisionKey{principal: principal, service: service}]
	if !ok {
		return nil, nil // nolint: nilnil
	}

	return &decision, nil
}

func (r *inMemoryRepository) Store(_ context.Context, decision *Decision) error {
	r.mut.Lock()
	defer r.mut.Unlock()

	r.decisions[decisionKey{principal: decision.Principal, service: decision.Service}] = *decision

	return nil
}
