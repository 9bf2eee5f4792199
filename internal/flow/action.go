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
	"maps"
	"slices"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// Action is the logic bound to an action state. Returned errors are routed by the
// executor, see Executor.
type Action interface {
	Execute(rc *RequestContext) (Outcome, error)
}

type ActionFunc func(rc *RequestContext) (Outcome, error)

func (f ActionFunc) Execute(rc *RequestContext) (Outcome, error) { return f(rc) }

type ActionResolver interface {
	Resolve(name string) (Action, bool)
}

// ActionRegistry maps action names to actions. It is populated during assembly and
// only read afterwards.
type ActionRegistry struct {
	actions map[string]Action
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]Action)}
}

func (r *ActionRegistry) Register(name string, action Action) error {
	if action == nil {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration, "action '%s' is nil", name)
	}

	if _, present := r.actions[name]; present {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"action '%s' is already registered", name)
	}

	r.actions[name] = action

	return nil
}

func (r *ActionRegistry) Resolve(name string) (Action, bool) {
	action, ok := r.actions[name]

	return action, ok
}

func (r *ActionRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.actions))
}
