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

// Graph is a validated flow. It is immutable and can be shared by concurrent executions.
type Graph struct {
	id     string
	start  string
	states map[string]*State
	order  []string
}

func (g *Graph) ID() string         { return g.id }
func (g *Graph) StartState() string { return g.start }

func (g *Graph) State(id string) (*State, bool) {
	state, ok := g.states[id]

	return state, ok
}

type StateDescription struct {
	ID          string       `json:"id"                     yaml:"id"`
	Kind        string       `json:"kind"                   yaml:"kind"`
	Action      string       `json:"action,omitempty"       yaml:"action,omitempty"`
	View        string       `json:"view,omitempty"         yaml:"view,omitempty"`
	Result      string       `json:"result,omitempty"       yaml:"result,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"  yaml:"transitions,omitempty"`
	ExitActions []string     `json:"exit_actions,omitempty" yaml:"exit_actions,omitempty"`
}

type Description struct {
	ID         string             `json:"id"          yaml:"id"`
	StartState string             `json:"start_state" yaml:"start_state"`
	States     []StateDescription `json:"states"      yaml:"states"`
}

// Describe returns the graph in the order its states have been created.
func (g *Graph) Describe() Description {
	desc := Description{
		ID:         g.id,
		StartState: g.start,
		States:     make([]StateDescription, 0, len(g.order)),
	}

	for _, id := range g.order {
		state := g.states[id]

		desc.States = append(desc.States, StateDescription{
			ID:          state.id,
			Kind:        state.kind.String(),
			Action:      state.action,
			View:        state.view,
			Result:      state.result,
			Transitions: state.Transitions(),
			ExitActions: state.ExitActions(),
		})
	}

	return desc
}
