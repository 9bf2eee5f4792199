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

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// ActionSignature declares the outcomes an action can produce. If registered with a
// builder, every action state bound to that action must route exactly these outcomes.
type ActionSignature struct {
	Action   string
	Outcomes []Outcome
}

type draftState struct {
	*State

	// original targets of outcomes redirected by a splice
	spliced map[Outcome]string
}

// Builder assembles a flow graph. It is the single owner of the graph under construction
// and is not safe for concurrent use.
type Builder struct {
	id         string
	start      string
	states     map[string]*draftState
	order      []string
	signatures map[string]ActionSignature
}

func NewBuilder(flowID string) *Builder {
	return &Builder{
		id:         flowID,
		states:     make(map[string]*draftState),
		signatures: make(map[string]ActionSignature),
	}
}

func (b *Builder) FlowID() string { return b.id }

func (b *Builder) SetStartState(id string) { b.start = id }

func (b *Builder) StartState() string { return b.start }

func (b *Builder) HasState(id string) bool {
	_, ok := b.states[id]

	return ok
}

func (b *Builder) RegisterSignature(signature ActionSignature) error {
	for _, outcome := range signature.Outcomes {
		if !outcome.Valid() {
			return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"signature of action '%s' declares unknown outcome '%s'", signature.Action, outcome)
		}
	}

	b.signatures[signature.Action] = ActionSignature{
		Action:   signature.Action,
		Outcomes: slices.Clone(signature.Outcomes),
	}

	return nil
}

// CreateActionState creates a state executing the action registered under the given
// name. The action is resolved at execution time. Creating a state with an id already
// in use replaces that state.
func (b *Builder) CreateActionState(id, action string) error {
	if len(action) == 0 {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"action state '%s' requires an action", id)
	}

	return b.put(&State{id: id, kind: ActionState, action: action})
}

func (b *Builder) CreateViewState(id, view string) error {
	if len(view) == 0 {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"view state '%s' requires a view", id)
	}

	return b.put(&State{id: id, kind: ViewState, view: view})
}

func (b *Builder) CreateEndState(id, result string) error {
	if len(result) == 0 {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"end state '%s' requires a result", id)
	}

	return b.put(&State{id: id, kind: EndState, result: result})
}

func (b *Builder) put(state *State) error {
	if len(state.id) == 0 {
		return errorchain.NewWithMessage(bifrost.ErrConfiguration, "state id must not be empty")
	}

	if _, present := b.states[state.id]; !present {
		b.order = append(b.order, state.id)
	}

	b.states[state.id] = &draftState{State: state, spliced: make(map[Outcome]string)}

	return nil
}

// AddTransition routes the outcome of the given state to the target state. Each outcome
// can be routed only once per state.
func (b *Builder) AddTransition(stateID string, outcome Outcome, targetID string) error {
	state, err := b.transitionSource(stateID, outcome)
	if err != nil {
		return err
	}

	if target, present := state.Target(outcome); present {
		return duplicateTransitionError(stateID, outcome, target)
	}

	state.transitions = append(state.transitions, Transition{On: outcome, To: targetID})

	return nil
}

// AddExitAction appends an action run whenever the given action state is left. Adding
// an already present exit action does nothing.
func (b *Builder) AddExitAction(stateID, action string) error {
	state, ok := b.states[stateID]
	if !ok {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration, "unknown state '%s'", stateID)
	}

	if state.kind != ActionState {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"exit actions are not supported by %s state '%s'", state.kind, stateID)
	}

	if !slices.Contains(state.exitActions, action) {
		state.exitActions = append(state.exitActions, action)
	}

	return nil
}

// SpliceIntoExistingState redirects the outcome of an existing state to the entry state of
// a sub flow and returns the target the outcome pointed to before, so the sub flow can
// continue there. Without replaceExisting, redirecting an already routed outcome is a
// duplicate transition. Repeating a splice does nothing and returns the original target.
func (b *Builder) SpliceIntoExistingState(
	stateID string, outcome Outcome, entryID string, replaceExisting bool,
) (string, error) {
	state, err := b.transitionSource(stateID, outcome)
	if err != nil {
		return "", err
	}

	if !b.HasState(entryID) {
		return "", errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"splice entry state '%s' does not exist", entryID)
	}

	previous, present := state.Target(outcome)

	switch {
	case !present:
		state.transitions = append(state.transitions, Transition{On: outcome, To: entryID})

		return "", nil
	case previous == entryID:
		return state.spliced[outcome], nil
	case !replaceExisting:
		return "", duplicateTransitionError(stateID, outcome, previous)
	}

	idx := slices.IndexFunc(state.transitions, func(t Transition) bool { return t.On == outcome })
	state.transitions[idx].To = entryID
	state.spliced[outcome] = previous

	return previous, nil
}

// TransitionRef names a routed outcome of a state.
type TransitionRef struct {
	StateID string
	On      Outcome
}

// TransitionsTo lists the outcomes routed to the given state, in state creation order.
func (b *Builder) TransitionsTo(targetID string) []TransitionRef {
	var refs []TransitionRef

	for _, id := range b.order {
		for _, transition := range b.states[id].transitions {
			if transition.To == targetID {
				refs = append(refs, TransitionRef{StateID: id, On: transition.On})
			}
		}
	}

	return refs
}

func (b *Builder) transitionSource(stateID string, outcome Outcome) (*draftState, error) {
	state, ok := b.states[stateID]
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration, "unknown state '%s'", stateID)
	}

	if state.kind == EndState {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"end state '%s' cannot have transitions", stateID)
	}

	if !outcome.Valid() {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unknown outcome '%s' used in state '%s'", outcome, stateID)
	}

	return state, nil
}

// Build validates the assembled states and returns an immutable graph.
func (b *Builder) Build() (*Graph, error) {
	if len(b.start) == 0 {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"flow '%s' has no start state", b.id)
	}

	if !b.HasState(b.start) {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"start state '%s' of flow '%s' does not exist", b.start, b.id)
	}

	for _, id := range b.order {
		if err := b.validateState(b.states[id]); err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"flow '%s' is invalid", b.id).CausedBy(err)
		}
	}

	if unreachable := b.unreachableStates(); len(unreachable) != 0 {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"flow '%s' contains states not reachable from '%s': %v", b.id, b.start, unreachable)
	}

	graph := &Graph{
		id:     b.id,
		start:  b.start,
		states: make(map[string]*State, len(b.states)),
		order:  slices.Clone(b.order),
	}

	for id, state := range b.states {
		graph.states[id] = state.clone()
	}

	return graph, nil
}

func (b *Builder) validateState(state *draftState) error {
	for _, transition := range state.transitions {
		if !b.HasState(transition.To) {
			return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"transition '%s' of state '%s' targets unknown state '%s'",
				transition.On, state.id, transition.To)
		}
	}

	if state.kind != EndState && len(state.transitions) == 0 {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"%s state '%s' has no transitions", state.kind, state.id)
	}

	signature, ok := b.signatures[state.action]
	if state.kind != ActionState || !ok {
		return nil
	}

	for _, outcome := range signature.Outcomes {
		if _, present := state.Target(outcome); !present {
			return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"state '%s' does not route outcome '%s' of action '%s'", state.id, outcome, state.action)
		}
	}

	for _, transition := range state.transitions {
		if !slices.Contains(signature.Outcomes, transition.On) {
			return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"state '%s' routes outcome '%s' not produced by action '%s'",
				state.id, transition.On, state.action)
		}
	}

	return nil
}

func (b *Builder) unreachableStates() []string {
	visited := map[string]bool{b.start: true}
	queue := []string{b.start}

	for len(queue) != 0 {
		current := b.states[queue[0]]
		queue = queue[1:]

		for _, transition := range current.transitions {
			if !visited[transition.To] {
				visited[transition.To] = true
				queue = append(queue, transition.To)
			}
		}
	}

	var unreachable []string

	for _, id := range b.order {
		if !visited[id] {
			unreachable = append(unreachable, id)
		}
	}

	return unreachable
}

func duplicateTransitionError(stateID string, outcome Outcome, target string) error {
	return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"outcome '%s' of state '%s' is already routed to '%s'", outcome, stateID, target).
		CausedBy(bifrost.ErrDuplicateTransition)
}
