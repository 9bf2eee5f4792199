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
	"slices"
)

type StateKind int

const (
	ActionState StateKind = iota + 1
	ViewState
	EndState
)

func (k StateKind) String() string {
	switch k {
	case ActionState:
		return "action"
	case ViewState:
		return "view"
	case EndState:
		return "end"
	default:
		return "unknown"
	}
}

type Transition struct {
	On Outcome `json:"on" yaml:"on"`
	To string  `json:"to" yaml:"to"`
}

// State is a node of a built graph. It is never modified after the graph has been built.
type State struct {
	id          string
	kind        StateKind
	action      string
	view        string
	result      string
	transitions []Transition
	exitActions []string
}

func (s *State) ID() string      { return s.id }
func (s *State) Kind() StateKind { return s.kind }

// Action returns the name of the action bound to an action state.
func (s *State) Action() string { return s.action }

// View returns the name of the view rendered by a view state.
func (s *State) View() string { return s.view }

// Result returns the result code of an end state.
func (s *State) Result() string { return s.result }

func (s *State) Transitions() []Transition { return slices.Clone(s.transitions) }
func (s *State) ExitActions() []string     { return slices.Clone(s.exitActions) }

func (s *State) Target(outcome Outcome) (string, bool) {
	idx := slices.IndexFunc(s.transitions, func(t Transition) bool { return t.On == outcome })
	if idx < 0 {
		return "", false
	}

	return s.transitions[idx].To, true
}

func (s *State) clone() *State {
	return &State{
		id:          s.id,
		kind:        s.kind,
		action:      s.action,
		view:        s.view,
		result:      s.result,
		transitions: slices.Clone(s.transitions),
		exitActions: slices.Clone(s.exitActions),
	}
}
