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
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dadrus/bifrost/internal/authn"
)

type memoryRepository struct {
	mut      sync.RWMutex
	accepted map[string]bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{accepted: make(map[string]bool)}
}

func (r *memoryRepository) IsAccepted(_ context.Context, principal *authn.Principal) bool {
	if principal == nil {
		return false
	}

	r.mut.RLock()
	defer r.mut.RUnlock()

	return r.accepted[principal.ID]
}

func (r *memoryRepository) Submit(_ context.Context, principal *authn.Principal) bool {
	if principal == nil || len(principal.ID) == 0 {
		return false
	}

	r.mut.Lock()
	defer r.mut.Unlock()

	r.accepted[principal.ID] = true

	return true
}

// principalAttributeRepository reads the acceptance from an attribute of the principal,
// as released by the authentication handler. Submissions are kept in memory.
type principalAttributeRepository struct {
	*memoryRepository

	attribute string
}

func newPrincipalAttributeRepository(attribute string) *principalAttributeRepository {
	return &principalAttributeRepository{memoryRepository: newMemoryRepository(), attribute: attribute}
}

func (r *principalAttributeRepository) IsAccepted(ctx context.Context, principal *authn.Principal) bool {
	values, _ := principal.Attribute(r.attribute)
	if slices.ContainsFunc(values, isTrue) {
		return true
	}

	return r.memoryRepository.IsAccepted(ctx, principal)
}

func isTrue(value any) bool {
	switch val := value.(type) {
	case bool:
		return val
	default:
		return strings.EqualFold(fmt.Sprint(val), "true")
	}
}
