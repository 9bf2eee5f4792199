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
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	defaultMaxTransitions = 100
	tracerName            = "github.com/dadrus/bifrost/flow"
)

var errAborted = errors.New("execution aborted")

type TransitionObserver interface {
	ObserveTransition(flowID, stateID string, outcome Outcome)
}

type noopTransitionObserver struct{}

func (noopTransitionObserver) ObserveTransition(string, string, Outcome) {}

type ExecutorOption func(e *Executor)

func WithMaxTransitions(limit int) ExecutorOption {
	return func(e *Executor) {
		if limit > 0 {
			e.maxTransitions = limit
		}
	}
}

func WithTransitionObserver(observer TransitionObserver) ExecutorOption {
	return func(e *Executor) {
		if observer != nil {
			e.observer = observer
		}
	}
}

func WithExecutorClock(clock func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) ExecutorOption {
	return func(e *Executor) {
		if provider != nil {
			e.tracer = provider.Tracer(tracerName)
		}
	}
}

// Executor walks flow graphs. Graphs are shared, every execution owns its cursor only.
type Executor struct {
	flows          map[string]*Graph
	actions        ActionResolver
	store          CursorStore
	maxTransitions int
	observer       TransitionObserver
	clock          func() time.Time
	tracer         trace.Tracer
}

func NewExecutor(graphs []*Graph, actions ActionResolver, store CursorStore, opts ...ExecutorOption) *Executor {
	executor := &Executor{
		flows:          make(map[string]*Graph, len(graphs)),
		actions:        actions,
		store:          store,
		maxTransitions: defaultMaxTransitions,
		observer:       noopTransitionObserver{},
		clock:          time.Now,
		tracer:         otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, graph := range graphs {
		executor.flows[graph.ID()] = graph
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

func (e *Executor) Flow(id string) (*Graph, bool) {
	graph, ok := e.flows[id]

	return graph, ok
}

// Start creates a new execution of the given flow and runs it until it suspends in a view
// state or terminates.
func (e *Executor) Start(ctx context.Context, flowID string, in Input) (*Result, error) {
	graph, ok := e.flows[flowID]
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrArgument, "unknown flow '%s'", flowID)
	}

	cursor := &Cursor{
		ExecutionID: uuid.NewString(),
		FlowID:      flowID,
		StateID:     graph.StartState(),
	}

	return e.run(ctx, graph, cursor, graph.StartState(), in)
}

// Resume continues a suspended execution with the event submitted to its view state. An
// event the view does not route leaves the execution untouched.
func (e *Executor) Resume(ctx context.Context, executionID string, event Outcome, in Input) (*Result, error) {
	cursor, err := e.store.Load(ctx, executionID)
	if err != nil {
		return nil, err
	}

	graph, ok := e.flows[cursor.FlowID]
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrNoSuchExecution,
			"flow '%s' of execution '%s' is not available anymore", cursor.FlowID, executionID)
	}

	state, ok := graph.State(cursor.StateID)
	if !ok || state.Kind() != ViewState {
		return nil, errorchain.NewWithMessagef(bifrost.ErrNoSuchExecution,
			"execution '%s' is not waiting for input", executionID)
	}

	target, ok := state.Target(event)
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrArgument,
			"event '%s' is not supported by state '%s'", event, state.ID())
	}

	e.observer.ObserveTransition(graph.ID(), state.ID(), event)

	return e.run(ctx, graph, cursor, target, in)
}

func (e *Executor) run(ctx context.Context, graph *Graph, cursor *Cursor, stateID string, in Input) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("_flow", graph.ID()).
		Str("_execution", cursor.ExecutionID).
		Logger()
	ctx = logger.WithContext(ctx)

	rc := newRequestContext(ctx, cursor, in, e.clock())

	for transitions := 0; ; transitions++ {
		if transitions >= e.maxTransitions {
			return e.fail(rc, errorchain.NewWithMessagef(bifrost.ErrInternal,
				"transition limit of %d exceeded", e.maxTransitions))
		}

		state, _ := graph.State(stateID)

		switch state.Kind() {
		case EndState:
			return e.complete(rc, state)
		case ViewState:
			return e.suspend(rc, state)
		default:
			outcome, err := e.visit(ctx, rc, state)
			if err != nil {
				return e.fail(rc, err)
			}

			stateID, _ = state.Target(outcome)
		}
	}
}

// visit executes the action of the state followed by its exit actions and returns the
// outcome to follow. Errors returned are fatal for the execution.
func (e *Executor) visit(ctx context.Context, rc *RequestContext, state *State) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("flow.%s.%s", rc.FlowID(), state.ID()),
		trace.WithAttributes(attribute.String("bifrost.flow.action", state.Action())))
	defer span.End()

	logger := zerolog.Ctx(ctx).With().Str("_state", state.ID()).Logger()
	ctx = logger.WithContext(ctx)

	rc.withState(ctx, state.ID())

	outcome, err := e.execute(rc, state.Action())

	e.runExitActions(rc, state)

	if err != nil && isFatal(err) {
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	if err != nil {
		logger.Info().Err(err).Msg("Action failed")

		rc.err = err
		outcome = routeError(err)
	}

	span.SetAttributes(attribute.String("bifrost.flow.outcome", string(outcome)))

	if _, ok := state.Target(outcome); !ok {
		err = errorchain.NewWithMessagef(bifrost.ErrUnmatchedOutcome,
			"state '%s' has no transition for outcome '%s'", state.ID(), outcome)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	logger.Debug().Str("_outcome", string(outcome)).Msg("Following transition")
	e.observer.ObserveTransition(rc.FlowID(), state.ID(), outcome)

	return outcome, nil
}

func (e *Executor) execute(rc *RequestContext, name string) (outcome Outcome, err error) {
	action, ok := e.actions.Resolve(name)
	if !ok {
		return "", errorchain.NewWithMessagef(bifrost.ErrConfiguration, "action '%s' is not registered", name).
			CausedBy(errAborted)
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = ""
			err = errorchain.NewWithMessagef(bifrost.ErrInternal, "action '%s' panicked: %v", name, rec).
				CausedBy(errAborted)
		}
	}()

	return action.Execute(rc)
}

func (e *Executor) runExitActions(rc *RequestContext, state *State) {
	for _, name := range state.ExitActions() {
		if _, err := e.execute(rc, name); err != nil {
			zerolog.Ctx(rc.Context()).Warn().Err(err).Str("_action", name).Msg("Exit action failed")
		}
	}
}

func (e *Executor) suspend(rc *RequestContext, state *State) (*Result, error) {
	cursor := e.cursorOf(rc, state)

	if err := e.store.Save(rc.Context(), cursor); err != nil {
		return nil, err
	}

	zerolog.Ctx(rc.Context()).Debug().Str("_state", state.ID()).Msg("Execution suspended")

	result := e.resultOf(rc, state, StatusSuspended)
	result.View = state.View()

	return result, nil
}

func (e *Executor) complete(rc *RequestContext, state *State) (*Result, error) {
	if err := e.store.Delete(rc.Context(), rc.ExecutionID()); err != nil {
		zerolog.Ctx(rc.Context()).Warn().Err(err).Msg("Failed deleting execution cursor")
	}

	zerolog.Ctx(rc.Context()).Debug().
		Str("_state", state.ID()).
		Str("_result", state.Result()).
		Msg("Execution completed")

	result := e.resultOf(rc, state, StatusCompleted)
	result.EndResult = state.Result()

	return result, nil
}

func (e *Executor) fail(rc *RequestContext, err error) (*Result, error) {
	zerolog.Ctx(rc.Context()).Error().Err(err).Str("_state", rc.StateID()).Msg("Execution failed")

	if derr := e.store.Delete(rc.Context(), rc.ExecutionID()); derr != nil {
		zerolog.Ctx(rc.Context()).Warn().Err(derr).Msg("Failed deleting execution cursor")
	}

	code := CodeFailure
	if errors.Is(err, bifrost.ErrNoHandlerAvailable) {
		code = CodeAuthenticationFailure
	}

	return &Result{
		ExecutionID:     rc.ExecutionID(),
		FlowID:          rc.FlowID(),
		Status:          StatusFailed,
		StateID:         rc.StateID(),
		ErrorCode:       code,
		ResponseHeaders: rc.ResponseHeaders(),
	}, nil
}

func (e *Executor) cursorOf(rc *RequestContext, state *State) *Cursor {
	return &Cursor{
		ExecutionID:    rc.ExecutionID(),
		FlowID:         rc.FlowID(),
		StateID:        state.ID(),
		Attributes:     maps.Clone(rc.attributes),
		Authentication: rc.Authentication(),
		ErrorCode:      PublicCode(rc.Error()),
	}
}

func (e *Executor) resultOf(rc *RequestContext, state *State, status Status) *Result {
	return &Result{
		ExecutionID:     rc.ExecutionID(),
		FlowID:          rc.FlowID(),
		Status:          status,
		StateID:         state.ID(),
		ErrorCode:       PublicCode(rc.Error()),
		Authentication:  rc.Authentication(),
		Attributes:      maps.Clone(rc.attributes),
		ResponseHeaders: rc.ResponseHeaders(),
	}
}

func isFatal(err error) bool {
	return errors.Is(err, bifrost.ErrNoHandlerAvailable) || errors.Is(err, errAborted)
}

func routeError(err error) Outcome {
	if errors.Is(err, bifrost.ErrAuthentication) {
		return OutcomeAuthenticationFailure
	}

	return OutcomeError
}
