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

package authn

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type plan struct {
	handlers   []Handler
	resolvers  []Resolver
	populators PopulatorChain
}

func (p *plan) clone() *plan {
	return &plan{
		handlers:   slices.Clone(p.handlers),
		resolvers:  slices.Clone(p.resolvers),
		populators: slices.Clone(p.populators),
	}
}

// Registry holds the authentication plan: handlers in registration order, resolver strategies
// and metadata populators. Readers always work on an immutable snapshot. Writers replace the
// snapshot as a whole.
type Registry struct {
	mut     sync.Mutex
	current atomic.Pointer[plan]
}

func NewRegistry() *Registry {
	registry := &Registry{}
	registry.current.Store(&plan{})

	return registry
}

func (r *Registry) update(fn func(p *plan) error) error {
	r.mut.Lock()
	defer r.mut.Unlock()

	next := r.current.Load().clone()
	if err := fn(next); err != nil {
		return err
	}

	r.current.Store(next)

	return nil
}

func (r *Registry) Register(handler Handler) error {
	return r.update(func(p *plan) error {
		if slices.ContainsFunc(p.handlers, func(h Handler) bool { return h.Name() == handler.Name() }) {
			return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"handler '%s' is already registered", handler.Name())
		}

		p.handlers = append(p.handlers, handler)

		return nil
	})
}

func (r *Registry) RegisterResolver(resolver Resolver) {
	_ = r.update(func(p *plan) error {
		p.resolvers = append(p.resolvers, resolver)

		return nil
	})
}

func (r *Registry) RegisterPopulator(populator MetadataPopulator) {
	_ = r.update(func(p *plan) error {
		p.populators = append(p.populators, populator)

		return nil
	})
}

// Swap atomically replaces the plan of this registry by the plan of the other one.
func (r *Registry) Swap(other *Registry) {
	r.mut.Lock()
	defer r.mut.Unlock()

	r.current.Store(other.current.Load().clone())
}

func (r *Registry) Handlers() []Handler { return slices.Clone(r.current.Load().handlers) }

func (r *Registry) Handler(name string) (Handler, bool) {
	for _, handler := range r.current.Load().handlers {
		if handler.Name() == name {
			return handler, true
		}
	}

	return nil, false
}

func (r *Registry) Populators() PopulatorChain { return slices.Clone(r.current.Load().populators) }

// Resolve returns the handlers to try for the given credential in registration order.
func (r *Registry) Resolve(cred Credential) ([]Handler, error) {
	snapshot := r.current.Load()

	var applicable []Resolver

	for _, resolver := range snapshot.resolvers {
		if resolver.Applies(cred) {
			applicable = append(applicable, resolver)
		}
	}

	if len(applicable) == 0 {
		applicable = []Resolver{defaultResolver{}}
	}

	selected := make(map[string]struct{})

	for _, resolver := range applicable {
		for _, handler := range resolver.Resolve(snapshot.handlers, cred) {
			selected[handler.Name()] = struct{}{}
		}
	}

	var result []Handler

	for _, handler := range snapshot.handlers {
		if _, ok := selected[handler.Name()]; ok {
			result = append(result, handler)
		}
	}

	if len(result) == 0 {
		return nil, errorchain.NewWithMessagef(bifrost.ErrNoHandlerAvailable,
			"no handler supports credential of variant '%s'", cred.Variant())
	}

	return result, nil
}
