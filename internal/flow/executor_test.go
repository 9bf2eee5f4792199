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

package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache/memory"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/x/errorchain"
	"github.com/dadrus/bifrost/internal/x/testsupport"
)

type transitionRecorder struct {
	transitions []string
}

func (r *transitionRecorder) ObserveTransition(_, stateID string, outcome flow.Outcome) {
	r.transitions = append(r.transitions, stateID+":"+string(outcome))
}

type executorFixture struct {
	actions  *flow.ActionRegistry
	recorder *transitionRecorder
	store    flow.CursorStore
	exits    int
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	c, err := memory.NewCache(nil)
	require.NoError(t, err)

	fixture := &executorFixture{
		actions:  flow.NewActionRegistry(),
		recorder: &transitionRecorder{},
		store:    flow.NewCursorStore(c, 0),
	}

	require.NoError(t, fixture.actions.Register("clearCredentials", flow.ActionFunc(
		func(rc *flow.RequestContext) (flow.Outcome, error) {
			fixture.exits++
			rc.ClearCredential()

			return flow.OutcomeSuccess, nil
		})))

	return fixture
}

func (f *executorFixture) executor(t *testing.T, opts ...flow.ExecutorOption) *flow.Executor {
	t.Helper()

	builder := flow.NewBuilder("login")
	builder.SetStartState("realSubmit")

	require.NoError(t, builder.CreateActionState("realSubmit", "authenticate"))
	require.NoError(t, builder.CreateViewState("viewLoginForm", "casLoginView"))
	require.NoError(t, builder.CreateEndState("loginSuccess", "success"))
	require.NoError(t, builder.CreateEndState("warnView", "warn"))
	require.NoError(t, builder.AddTransition("realSubmit", flow.OutcomeSuccess, "loginSuccess"))
	require.NoError(t, builder.AddTransition("realSubmit", flow.OutcomeWarn, "warnView"))
	require.NoError(t, builder.AddTransition("realSubmit", flow.OutcomeError, "viewLoginForm"))
	require.NoError(t, builder.AddTransition("realSubmit", flow.OutcomeAuthenticationFailure, "viewLoginForm"))
	require.NoError(t, builder.AddTransition("viewLoginForm", flow.OutcomeSubmit, "realSubmit"))
	require.NoError(t, builder.AddTransition("viewLoginForm", flow.OutcomeCancel, "warnView"))
	require.NoError(t, builder.AddExitAction("realSubmit", "clearCredentials"))

	graph, err := builder.Build()
	require.NoError(t, err)

	opts = append(opts, flow.WithTransitionObserver(f.recorder))

	return flow.NewExecutor([]*flow.Graph{graph}, f.actions, f.store, opts...)
}

func TestExecutorRunsExitActionsOnEveryOutcome(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc        string
		outcome   flow.Outcome
		err       error
		status    flow.Status
		stateID   string
		errorCode string
	}{
		{
			uc:      "success",
			outcome: flow.OutcomeSuccess,
			status:  flow.StatusCompleted,
			stateID: "loginSuccess",
		},
		{
			uc:      "warn",
			outcome: flow.OutcomeWarn,
			status:  flow.StatusCompleted,
			stateID: "warnView",
		},
		{
			uc:      "error outcome",
			outcome: flow.OutcomeError,
			status:  flow.StatusSuspended,
			stateID: "viewLoginForm",
		},
		{
			uc:        "authentication error",
			err:       errorchain.NewWithMessage(bifrost.ErrAuthentication, "invalid certificate"),
			status:    flow.StatusSuspended,
			stateID:   "viewLoginForm",
			errorCode: "authenticationError",
		},
		{
			uc:        "communication error",
			err:       errorchain.New(bifrost.ErrCommunication),
			status:    flow.StatusSuspended,
			stateID:   "viewLoginForm",
			errorCode: "communicationError",
		},
		{
			uc:        "plain error",
			err:       testsupport.ErrTestPurpose,
			status:    flow.StatusSuspended,
			stateID:   "viewLoginForm",
			errorCode: "internalError",
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			fixture := newExecutorFixture(t)

			require.NoError(t, fixture.actions.Register("authenticate", flow.ActionFunc(
				func(*flow.RequestContext) (flow.Outcome, error) { return tc.outcome, tc.err })))

			executor := fixture.executor(t)

			// WHEN
			res, err := executor.Start(context.Background(), "login", flow.Input{
				Credential: authn.NewUsernamePasswordCredential("alice", "secret"),
			})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.stateID, res.StateID)
			assert.Equal(t, tc.errorCode, res.ErrorCode)
			assert.Equal(t, 1, fixture.exits)
		})
	}
}

func TestExecutorFatalConditions(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc        string
		action    flow.Action
		opts      []flow.ExecutorOption
		errorCode string
	}{
		{
			uc: "no handler available",
			action: flow.ActionFunc(func(*flow.RequestContext) (flow.Outcome, error) {
				return "", errorchain.NewWithMessage(bifrost.ErrNoHandlerAvailable, "no handler for certificate")
			}),
			errorCode: flow.CodeAuthenticationFailure,
		},
		{
			uc: "unmatched outcome",
			action: flow.ActionFunc(func(*flow.RequestContext) (flow.Outcome, error) {
				return flow.OutcomeMustAccept, nil
			}),
			errorCode: flow.CodeFailure,
		},
		{
			uc: "panicking action",
			action: flow.ActionFunc(func(*flow.RequestContext) (flow.Outcome, error) {
				panic("boom")
			}),
			errorCode: flow.CodeFailure,
		},
		{
			uc:        "unresolvable action",
			errorCode: flow.CodeFailure,
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			fixture := newExecutorFixture(t)

			if tc.action != nil {
				require.NoError(t, fixture.actions.Register("authenticate", tc.action))
			}

			executor := fixture.executor(t, tc.opts...)

			// WHEN
			res, err := executor.Start(context.Background(), "login", flow.Input{})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, flow.StatusFailed, res.Status)
			assert.Equal(t, tc.errorCode, res.ErrorCode)
			assert.Equal(t, "realSubmit", res.StateID)
			assert.Equal(t, 1, fixture.exits)
			assert.Empty(t, fixture.recorder.transitions)

			_, err = fixture.store.Load(context.Background(), res.ExecutionID)
			require.ErrorIs(t, err, bifrost.ErrNoSuchExecution)
		})
	}
}

func TestExecutorTransitionLimit(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newExecutorFixture(t)
	visits := 0

	require.NoError(t, fixture.actions.Register("loop", flow.ActionFunc(
		func(*flow.RequestContext) (flow.Outcome, error) {
			visits++

			return flow.OutcomeProceed, nil
		})))

	builder := flow.NewBuilder("loop")
	builder.SetStartState("spin")
	require.NoError(t, builder.CreateActionState("spin", "loop"))
	require.NoError(t, builder.AddTransition("spin", flow.OutcomeProceed, "spin"))

	graph, err := builder.Build()
	require.NoError(t, err)

	executor := flow.NewExecutor([]*flow.Graph{graph}, fixture.actions, fixture.store, flow.WithMaxTransitions(5))

	// WHEN
	res, err := executor.Start(context.Background(), "loop", flow.Input{})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, flow.StatusFailed, res.Status)
	assert.Equal(t, flow.CodeFailure, res.ErrorCode)
	assert.Equal(t, 5, visits)
}

func TestExecutorSuspendAndResume(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newExecutorFixture(t)
	attempts := 0

	require.NoError(t, fixture.actions.Register("authenticate", flow.ActionFunc(
		func(rc *flow.RequestContext) (flow.Outcome, error) {
			attempts++

			if rc.FormValue("password") != "secret" {
				rc.SetAttribute("attempts", attempts)

				return "", errorchain.New(bifrost.ErrAuthentication)
			}

			rc.SetAuthentication(&authn.Authentication{Principal: authn.NewPrincipal("alice", nil)})

			return flow.OutcomeSuccess, nil
		})))

	executor := fixture.executor(t)
	ctx := context.Background()

	// WHEN
	res, err := executor.Start(ctx, "login", flow.Input{})

	// THEN
	require.NoError(t, err)
	require.Equal(t, flow.StatusSuspended, res.Status)
	assert.Equal(t, "viewLoginForm", res.StateID)
	assert.Equal(t, "casLoginView", res.View)
	assert.Equal(t, "authenticationError", res.ErrorCode)
	assert.NotEmpty(t, res.ExecutionID)

	executionID := res.ExecutionID

	// WHEN
	_, err = executor.Resume(ctx, executionID, flow.OutcomeProceed, flow.Input{})

	// THEN
	require.ErrorIs(t, err, bifrost.ErrArgument)

	// WHEN
	res, err = executor.Resume(ctx, executionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{"password": "secret"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, flow.StatusCompleted, res.Status)
	assert.Equal(t, "loginSuccess", res.StateID)
	assert.Equal(t, "success", res.EndResult)
	assert.Equal(t, executionID, res.ExecutionID)
	assert.Empty(t, res.ErrorCode)
	require.NotNil(t, res.Authentication)
	assert.Equal(t, "alice", res.Authentication.Principal.ID)
	assert.InDelta(t, 1, res.Attributes["attempts"], 0)
	assert.Equal(t, 2, fixture.exits)
	assert.Equal(t, []string{
		"realSubmit:authenticationFailure",
		"viewLoginForm:submit",
		"realSubmit:success",
	}, fixture.recorder.transitions)

	// WHEN
	_, err = executor.Resume(ctx, executionID, flow.OutcomeSubmit, flow.Input{})

	// THEN
	require.ErrorIs(t, err, bifrost.ErrNoSuchExecution)
}

func TestExecutorStartUnknownFlow(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newExecutorFixture(t)
	executor := fixture.executor(t)

	// WHEN
	_, err := executor.Start(context.Background(), "foo", flow.Input{})

	// THEN
	require.ErrorIs(t, err, bifrost.ErrArgument)
}

type failingStore struct {
	flow.CursorStore
}

func (failingStore) Save(context.Context, *flow.Cursor) error {
	return errorchain.New(bifrost.ErrInternal).CausedBy(testsupport.ErrTestPurpose)
}

func TestExecutorReportsCursorStoreFailures(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newExecutorFixture(t)
	require.NoError(t, fixture.actions.Register("authenticate", flow.ActionFunc(
		func(*flow.RequestContext) (flow.Outcome, error) { return flow.OutcomeError, nil })))

	fixture.store = failingStore{CursorStore: fixture.store}
	executor := fixture.executor(t)

	// WHEN
	_, err := executor.Start(context.Background(), "login", flow.Input{})

	// THEN
	require.ErrorIs(t, err, bifrost.ErrInternal)
	require.ErrorIs(t, err, testsupport.ErrTestPurpose)
}

func TestPublicCode(t *testing.T) {
	t.Parallel()

	assert.Empty(t, flow.PublicCode(nil))
	assert.Equal(t, "noHandlerAvailable", flow.PublicCode(
		errorchain.NewWithMessage(bifrost.ErrNoHandlerAvailable, "x509 handler missing")))
	assert.Equal(t, "internalError", flow.PublicCode(testsupport.ErrTestPurpose))
}

func TestExecutorCreatesSpanPerActionState(t *testing.T) {
	t.Parallel()

	// GIVEN
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	fixture := newExecutorFixture(t)

	require.NoError(t, fixture.actions.Register("authenticate", flow.ActionFunc(
		func(*flow.RequestContext) (flow.Outcome, error) {
			return "", errorchain.New(bifrost.ErrAuthentication)
		})))

	executor := fixture.executor(t, flow.WithTracerProvider(provider))

	// WHEN
	_, err := executor.Start(context.Background(), "login", flow.Input{})

	// THEN
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "flow.login.realSubmit", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("bifrost.flow.action", "authenticate"))
	assert.Contains(t, spans[0].Attributes(),
		attribute.String("bifrost.flow.outcome", string(flow.OutcomeAuthenticationFailure)))
}
