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
	"crypto/x509"
	"crypto/x509/pkix"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/aup"
	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache/memory"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const contextAttribute = "authnContextClass"

type stubHandler struct {
	name    string
	variant authn.Variant
	calls   int
	auth    func(cred authn.Credential) (*authn.Principal, error)
}

func (h *stubHandler) Name() string                       { return h.name }
func (h *stubHandler) Variants() []authn.Variant          { return []authn.Variant{h.variant} }
func (h *stubHandler) Supports(cred authn.Credential) bool { return cred.Variant() == h.variant }

func (h *stubHandler) Authenticate(_ context.Context, cred authn.Credential) (*authn.Principal, error) {
	h.calls++

	return h.auth(cred)
}

func passwordHandler(users map[string]*authn.Principal) *stubHandler {
	return &stubHandler{
		name:    "static",
		variant: authn.VariantPassword,
		auth: func(cred authn.Credential) (*authn.Principal, error) {
			upc := cred.(*authn.UsernamePasswordCredential) // nolint: forcetypeassert

			principal, ok := users[upc.ID()]
			if !ok || upc.Password() != "secret" {
				return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "invalid credentials")
			}

			return principal, nil
		},
	}
}

func tokenHandler() *stubHandler {
	return &stubHandler{
		name:    "authy",
		variant: authn.VariantToken,
		auth: func(cred authn.Credential) (*authn.Principal, error) {
			token := cred.(*authn.OneTimeTokenCredential) // nolint: forcetypeassert
			if token.Token() != "123456" {
				return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "invalid token")
			}

			return authn.NewPrincipal(token.ID(), nil), nil
		},
	}
}

// credentialSpy records whether the credential has been removed each time the
// clearWebflowCredentials action ran.
type credentialSpy struct {
	flow.ActionResolver

	cleared []bool
}

func (s *credentialSpy) Resolve(name string) (flow.Action, bool) {
	action, ok := s.ActionResolver.Resolve(name)
	if !ok || name != ActionClearWebflowCredentials {
		return action, ok
	}

	return flow.ActionFunc(func(rc *flow.RequestContext) (flow.Outcome, error) {
		outcome, err := action.Execute(rc)
		s.cleared = append(s.cleared, rc.Credential() == nil)

		return outcome, err
	}), true
}

type fixture struct {
	deps     Dependencies
	registry *authn.Registry
	tickets  *TicketRegistry
	spy      *credentialSpy
}

func newFixture(t *testing.T, handlers ...authn.Handler) *fixture {
	t.Helper()

	registry := authn.NewRegistry()
	for _, handler := range handlers {
		require.NoError(t, registry.Register(handler))
	}

	c, err := memory.NewCache(nil)
	require.NoError(t, err)

	tickets := NewTicketRegistry(c, time.Hour)

	return &fixture{
		registry: registry,
		tickets:  tickets,
		deps: Dependencies{
			Manager: authn.NewManager(registry),
			Tickets: tickets,
			MFA:     config.MFAConfig{AuthenticationContextAttribute: contextAttribute},
		},
	}
}

func (f *fixture) withMFA(t *testing.T, providers ...config.ProviderConfig) {
	t.Helper()

	f.deps.MFA.Providers = providers
	f.deps.MFA.Triggers.GlobalProviderID = providers[0].ID

	var err error

	f.deps.Providers, err = mfa.NewProviders(f.deps.MFA, f.registry)
	require.NoError(t, err)

	f.deps.Selector, err = mfa.NewSelector(f.deps.MFA.Triggers, f.deps.Providers)
	require.NoError(t, err)
}

func (f *fixture) executor(t *testing.T) *flow.Executor {
	t.Helper()

	flows, err := New(f.deps)
	require.NoError(t, err)

	c, err := memory.NewCache(nil)
	require.NoError(t, err)

	f.spy = &credentialSpy{ActionResolver: flows.Actions}

	return flow.NewExecutor(flows.Graphs, f.spy, flow.NewCursorStore(c, time.Minute))
}

func TestCertificateLogin(t *testing.T) {
	t.Parallel()

	cert := &x509.Certificate{Subject: pkix.Name{CommonName: "casuser"}}

	for _, tc := range []struct {
		uc     string
		result func(cred authn.Credential) (*authn.Principal, error)
		assert func(t *testing.T, res *flow.Result, spy *credentialSpy)
	}{
		{
			uc: "certificate accepted",
			result: func(cred authn.Credential) (*authn.Principal, error) {
				leaf := cred.(*authn.X509CertificateCredential).Certificate() // nolint: forcetypeassert

				return authn.NewPrincipal(leaf.Subject.CommonName, nil), nil
			},
			assert: func(t *testing.T, res *flow.Result, spy *credentialSpy) {
				t.Helper()

				assert.Equal(t, flow.StatusCompleted, res.Status)
				assert.Equal(t, StateLoginSuccess, res.StateID)
				assert.Equal(t, ResultSuccess, res.EndResult)
				require.NotNil(t, res.Authentication)
				assert.Equal(t, "casuser", res.Authentication.Principal.ID)

				values, ok := res.Authentication.Attribute("authnContext")
				require.True(t, ok)
				assert.Equal(t, []any{"x509"}, values)
				assert.Contains(t, res.Attributes[AttributeTicketGrantingTicketID], ticketGrantingTicketPrefix)
				assert.Equal(t, []bool{true}, spy.cleared)
			},
		},
		{
			uc: "certificate rejected",
			result: func(authn.Credential) (*authn.Principal, error) {
				return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication, "certificate revoked")
			},
			assert: func(t *testing.T, res *flow.Result, spy *credentialSpy) {
				t.Helper()

				assert.Equal(t, flow.StatusSuspended, res.Status)
				assert.Equal(t, StateViewLoginForm, res.StateID)
				assert.Equal(t, ViewLogin, res.View)
				assert.Equal(t, "authenticationError", res.ErrorCode)
				assert.Nil(t, res.Authentication)
				assert.Equal(t, []bool{true}, spy.cleared)
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			handler := &stubHandler{name: "x509", variant: authn.VariantCertificate, auth: tc.result}
			fixture := newFixture(t, handler)
			fixture.registry.RegisterPopulator(authn.NewAuthenticationContextPopulator("authnContext", "x509", "x509"))
			fixture.deps.Webflow.X509.Enabled = true

			executor := fixture.executor(t)

			// WHEN
			res, err := executor.Start(context.Background(), FlowLogin, flow.Input{
				Credential: authn.NewX509CertificateCredential(cert),
			})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, 1, handler.calls)
			tc.assert(t, res, fixture.spy)
		})
	}
}

func TestCertificateLoginFallsBackToLoginForm(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newFixture(t,
		&stubHandler{name: "x509", variant: authn.VariantCertificate},
		passwordHandler(map[string]*authn.Principal{"casuser": authn.NewPrincipal("casuser", nil)}))
	fixture.deps.Webflow.X509.Enabled = true

	executor := fixture.executor(t)
	ctx := context.Background()

	// WHEN
	res, err := executor.Start(ctx, FlowLogin, flow.Input{})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateViewLoginForm, res.StateID)
	assert.Empty(t, res.ErrorCode)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateLoginSuccess, res.StateID)
	assert.True(t, res.Authentication.HasSuccessfulHandler("static"))
}

func TestPasswordLoginFailureShowsLoginFormAgain(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newFixture(t,
		passwordHandler(map[string]*authn.Principal{"casuser": authn.NewPrincipal("casuser", nil)}))

	executor := fixture.executor(t)
	ctx := context.Background()

	res, err := executor.Start(ctx, FlowLogin, flow.Input{Form: map[string]string{FormService: "https://app.example.com"}})
	require.NoError(t, err)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "wrong"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, flow.StatusSuspended, res.Status)
	assert.Equal(t, StateViewLoginForm, res.StateID)
	assert.Equal(t, "authenticationError", res.ErrorCode)
	assert.Equal(t, "https://app.example.com", res.Attributes[AttributeService])
	assert.Equal(t, []bool{true}, fixture.spy.cleared)
}

func TestPasswordLoginWithWarnings(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newFixture(t, passwordHandler(map[string]*authn.Principal{
		"casuser": authn.NewPrincipal("casuser", nil),
	}))
	fixture.registry.RegisterPopulator(authn.NewAuthenticationContextPopulator(AttributeWarnings, "password expires soon"))

	executor := fixture.executor(t)
	ctx := context.Background()

	res, err := executor.Start(ctx, FlowLogin, flow.Input{})
	require.NoError(t, err)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateWarn, res.StateID)
	assert.Equal(t, ViewWarning, res.View)
	assert.Equal(t, []string{"password expires soon"}, res.Attributes[AttributeWarnings])

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeProceed, flow.Input{})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateLoginSuccess, res.StateID)
}

func TestMultifactorBypass(t *testing.T) {
	t.Parallel()

	// GIVEN
	token := tokenHandler()
	fixture := newFixture(t,
		passwordHandler(map[string]*authn.Principal{
			"casuser": authn.NewPrincipal("casuser", map[string][]any{"mfaExempt": {"true"}}),
		}),
		token)
	fixture.withMFA(t, config.ProviderConfig{
		ID:      "mfa-authy",
		Handler: "authy",
		Bypass: []config.Backend{{
			Type:   "principal_attribute",
			Config: map[string]any{"name": "mfaExempt", "value_pattern": "true"},
		}},
	})

	executor := fixture.executor(t)
	ctx := context.Background()

	res, err := executor.Start(ctx, FlowLogin, flow.Input{})
	require.NoError(t, err)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, flow.StatusCompleted, res.Status)
	assert.Equal(t, StateLoginSuccess, res.StateID)
	assert.Zero(t, token.calls)

	values, _ := res.Authentication.Attribute(mfa.AttributeBypass)
	assert.Equal(t, []any{true}, values)
	values, _ = res.Authentication.Attribute(mfa.AttributeBypassedProviderID)
	assert.Equal(t, []any{"mfa-authy"}, values)
	values, _ = res.Authentication.Attribute(contextAttribute)
	assert.Equal(t, []any{"mfa-authy"}, values)
}

func TestMultifactorChallengeAndVerification(t *testing.T) {
	t.Parallel()

	// GIVEN
	token := tokenHandler()
	fixture := newFixture(t,
		passwordHandler(map[string]*authn.Principal{"casuser": authn.NewPrincipal("casuser", nil)}),
		token)
	fixture.withMFA(t, config.ProviderConfig{ID: "mfa-authy", Handler: "authy"})

	executor := fixture.executor(t)
	ctx := context.Background()

	res, err := executor.Start(ctx, FlowLogin, flow.Input{})
	require.NoError(t, err)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "viewMfaToken-mfa-authy", res.StateID)
	assert.Equal(t, ViewMfa, res.View)
	assert.Equal(t, "casuser", res.Attributes[AttributeMfaDeviceID])

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormToken: "000000"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "viewMfaToken-mfa-authy", res.StateID)
	assert.Equal(t, "authenticationError", res.ErrorCode)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormToken: "123456"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateLoginSuccess, res.StateID)
	assert.Equal(t, 2, token.calls)
	assert.Equal(t, "casuser", res.Authentication.Principal.ID)
	assert.Equal(t, []string{"static", "authy"}, res.Authentication.SuccessfulHandlers)
	assert.NotContains(t, res.Attributes, AttributeMfaDeviceID)

	values, _ := res.Authentication.Attribute(contextAttribute)
	assert.Equal(t, []any{"mfa-authy"}, values)
}

func TestMultifactorProviderUnavailable(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc      string
		mode    config.FailureMode
		stateID string
		check   func(t *testing.T, auth *authn.Authentication)
	}{
		{
			uc:      "closed",
			mode:    config.FailureModeClosed,
			stateID: StateMfaUnavailable,
			check: func(t *testing.T, auth *authn.Authentication) {
				t.Helper()

				_, ok := auth.Attribute(contextAttribute)
				assert.False(t, ok)
			},
		},
		{
			uc:      "open",
			mode:    config.FailureModeOpen,
			stateID: StateLoginSuccess,
			check: func(t *testing.T, auth *authn.Authentication) {
				t.Helper()

				_, ok := auth.Attribute(contextAttribute)
				assert.False(t, ok)

				values, _ := auth.Attribute(mfa.AttributeUnavailable)
				assert.Equal(t, []any{"mfa-authy"}, values)
			},
		},
		{
			uc:      "phantom",
			mode:    config.FailureModePhantom,
			stateID: StateLoginSuccess,
			check: func(t *testing.T, auth *authn.Authentication) {
				t.Helper()

				values, _ := auth.Attribute(contextAttribute)
				assert.Equal(t, []any{"mfa-authy"}, values)

				values, _ = auth.Attribute(mfa.AttributePhantomProviderID)
				assert.Equal(t, []any{"mfa-authy"}, values)

				_, bypassed := auth.Attribute(mfa.AttributeBypass)
				assert.False(t, bypassed)
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			// the handler of the provider is not part of the plan
			fixture := newFixture(t,
				passwordHandler(map[string]*authn.Principal{"casuser": authn.NewPrincipal("casuser", nil)}))
			fixture.withMFA(t, config.ProviderConfig{ID: "mfa-authy", Handler: "authy", FailureMode: tc.mode})

			executor := fixture.executor(t)
			ctx := context.Background()

			res, err := executor.Start(ctx, FlowLogin, flow.Input{})
			require.NoError(t, err)

			// WHEN
			res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
				Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
			})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, flow.StatusCompleted, res.Status)
			assert.Equal(t, tc.stateID, res.StateID)
			tc.check(t, res.Authentication)
		})
	}
}

func TestAcceptableUsagePolicy(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc      string
		event   flow.Outcome
		stateID string
	}{
		{uc: "accepted", event: flow.OutcomeSubmit, stateID: StateLoginSuccess},
		{uc: "declined", event: flow.OutcomeCancel, stateID: StateLoginFailure},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			repository, err := aup.New(config.AUPConfig{
				Enabled:    true,
				Attribute:  "aupAccepted",
				Repository: config.Backend{Type: "memory"},
			})
			require.NoError(t, err)

			fixture := newFixture(t,
				passwordHandler(map[string]*authn.Principal{"casuser": authn.NewPrincipal("casuser", nil)}))
			fixture.deps.Webflow.AUP.Enabled = true
			fixture.deps.AUP = repository

			executor := fixture.executor(t)
			ctx := context.Background()

			res, err := executor.Start(ctx, FlowLogin, flow.Input{})
			require.NoError(t, err)

			res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
				Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
			})
			require.NoError(t, err)
			require.Equal(t, StateAUPView, res.StateID)

			// WHEN
			res, err = executor.Resume(ctx, res.ExecutionID, tc.event, flow.Input{})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, flow.StatusCompleted, res.Status)
			assert.Equal(t, tc.stateID, res.StateID)
			assert.Equal(t, tc.event == flow.OutcomeSubmit,
				repository.IsAccepted(ctx, authn.NewPrincipal("casuser", nil)))
		})
	}
}

func TestAcceptableUsagePolicyIsAskedOnEveryLoginPath(t *testing.T) {
	t.Parallel()

	principal := authn.NewPrincipal("casuser", map[string][]any{"mfaExempt": {"true"}})

	for _, tc := range []struct {
		uc    string
		setup func(t *testing.T, fixture *fixture)
		login func(t *testing.T, ctx context.Context, executor *flow.Executor) *flow.Result
	}{
		{
			uc: "client certificate",
			setup: func(t *testing.T, fixture *fixture) {
				t.Helper()

				fixture.deps.Webflow.X509.Enabled = true
			},
			login: func(t *testing.T, ctx context.Context, executor *flow.Executor) *flow.Result {
				t.Helper()

				res, err := executor.Start(ctx, FlowLogin, flow.Input{
					Credential: authn.NewX509CertificateCredential(
						&x509.Certificate{Subject: pkix.Name{CommonName: "casuser"}}),
				})
				require.NoError(t, err)

				return res
			},
		},
		{
			uc: "password with bypassed multifactor authentication",
			setup: func(t *testing.T, fixture *fixture) {
				t.Helper()

				fixture.withMFA(t, config.ProviderConfig{
					ID:      "mfa-authy",
					Handler: "authy",
					Bypass: []config.Backend{{
						Type:   "principal_attribute",
						Config: map[string]any{"name": "mfaExempt", "value_pattern": "true"},
					}},
				})
			},
			login: submitPassword,
		},
		{
			uc: "password with verified multifactor token",
			setup: func(t *testing.T, fixture *fixture) {
				t.Helper()

				fixture.withMFA(t, config.ProviderConfig{ID: "mfa-authy", Handler: "authy"})
			},
			login: func(t *testing.T, ctx context.Context, executor *flow.Executor) *flow.Result {
				t.Helper()

				res := submitPassword(t, ctx, executor)
				require.Equal(t, "viewMfaToken-mfa-authy", res.StateID)

				res, err := executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
					Form: map[string]string{FormToken: "123456"},
				})
				require.NoError(t, err)

				return res
			},
		},
		{
			uc: "password with warnings",
			setup: func(t *testing.T, fixture *fixture) {
				t.Helper()

				fixture.registry.RegisterPopulator(
					authn.NewAuthenticationContextPopulator(AttributeWarnings, "password expires soon"))
			},
			login: func(t *testing.T, ctx context.Context, executor *flow.Executor) *flow.Result {
				t.Helper()

				res := submitPassword(t, ctx, executor)
				require.Equal(t, StateWarn, res.StateID)

				res, err := executor.Resume(ctx, res.ExecutionID, flow.OutcomeProceed, flow.Input{})
				require.NoError(t, err)

				return res
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			repository, err := aup.New(config.AUPConfig{
				Enabled:    true,
				Attribute:  "aupAccepted",
				Repository: config.Backend{Type: "memory"},
			})
			require.NoError(t, err)

			fixture := newFixture(t,
				&stubHandler{
					name:    "x509",
					variant: authn.VariantCertificate,
					auth:    func(authn.Credential) (*authn.Principal, error) { return principal, nil },
				},
				passwordHandler(map[string]*authn.Principal{"casuser": principal}),
				tokenHandler())
			fixture.deps.Webflow.AUP.Enabled = true
			fixture.deps.AUP = repository
			tc.setup(t, fixture)

			executor := fixture.executor(t)
			ctx := context.Background()

			// WHEN
			res := tc.login(t, ctx, executor)

			// THEN
			require.Equal(t, flow.StatusSuspended, res.Status)
			require.Equal(t, StateAUPView, res.StateID)
			assert.NotContains(t, res.Attributes, AttributeTicketGrantingTicketID)

			// WHEN
			res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{})

			// THEN
			require.NoError(t, err)
			assert.Equal(t, StateLoginSuccess, res.StateID)
			assert.Contains(t, res.Attributes[AttributeTicketGrantingTicketID], ticketGrantingTicketPrefix)
		})
	}
}

func submitPassword(t *testing.T, ctx context.Context, executor *flow.Executor) *flow.Result {
	t.Helper()

	res, err := executor.Start(ctx, FlowLogin, flow.Input{})
	require.NoError(t, err)

	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
	})
	require.NoError(t, err)

	return res
}

func TestConsentIsAskedOnlyOnce(t *testing.T) {
	t.Parallel()

	// GIVEN
	repository := consent.NewInMemoryRepository()
	fixture := newFixture(t, passwordHandler(map[string]*authn.Principal{
		"casuser": authn.NewPrincipal("casuser", map[string][]any{"mail": {"casuser@example.com"}}),
	}))
	fixture.deps.Webflow.Consent.Enabled = true
	fixture.deps.Webflow.Consent.DefaultOption = consent.Always
	fixture.deps.Consent = repository

	executor := fixture.executor(t)
	ctx := context.Background()
	login := func() *flow.Result {
		res, err := executor.Start(ctx, FlowLogin, flow.Input{Form: map[string]string{FormService: "https://app"}})
		require.NoError(t, err)

		res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
			Form: map[string]string{FormUsername: "casuser", FormPassword: "secret"},
		})
		require.NoError(t, err)

		return res
	}

	// WHEN
	res := login()

	// THEN
	require.Equal(t, StateConsentView, res.StateID)
	assert.Contains(t, res.Attributes, AttributeTicketGrantingTicketID)

	// WHEN
	res, err := executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormReminderOption: "unknown"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateConsentView, res.StateID)
	assert.Equal(t, "argumentError", res.ErrorCode)

	// WHEN
	res, err = executor.Resume(ctx, res.ExecutionID, flow.OutcomeSubmit, flow.Input{
		Form: map[string]string{FormReminderOption: "1"},
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, StateLoginSuccess, res.StateID)

	decision, err := repository.Find(ctx, "casuser", "https://app")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, consent.AttributeName, decision.Option)

	// WHEN
	res = login()

	// THEN
	assert.Equal(t, StateLoginSuccess, res.StateID)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	// GIVEN
	fixture := newFixture(t)
	executor := fixture.executor(t)
	ctx := context.Background()

	tgt, err := fixture.tickets.Create(ctx, &authn.Authentication{Principal: authn.NewPrincipal("casuser", nil)})
	require.NoError(t, err)

	// WHEN
	res, err := executor.Start(ctx, FlowLogout, flow.Input{Form: map[string]string{
		FormTicketGrantingTicketID: tgt,
		FormService:                "https://app/bye",
	}})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, flow.StatusCompleted, res.Status)
	assert.Equal(t, StateLogoutFinished, res.StateID)
	assert.Equal(t, ResultLogout, res.EndResult)
	assert.Equal(t, "casuser", res.Attributes[AttributeLoggedOutPrincipal])
	assert.Equal(t, "https://app/bye", res.Attributes[AttributeLogoutRedirectURL])
	assert.Equal(t, "no-cache", res.ResponseHeaders.Get("Pragma"))
	assert.Equal(t, "1", res.ResponseHeaders.Get("Expires"))
	assert.Equal(t, []string{"no-cache", "no-store"}, res.ResponseHeaders.Values("Cache-Control"))

	_, err = fixture.tickets.Get(ctx, tgt)
	require.ErrorIs(t, err, bifrost.ErrArgument)
}

func TestPreventCachingIsAppliedOnFailures(t *testing.T) {
	t.Parallel()

	// GIVEN
	action := PreventCaching(flow.ActionFunc(func(*flow.RequestContext) (flow.Outcome, error) {
		return "", errorchain.New(bifrost.ErrInternal)
	}))
	rc := flow.NewRequestContext(context.Background(), FlowLogout, flow.Input{})

	// WHEN
	_, err := action.Execute(rc)

	// THEN
	require.ErrorIs(t, err, bifrost.ErrInternal)
	assert.Equal(t, "no-cache", rc.ResponseHeaders().Get("Pragma"))
	assert.Equal(t, "1", rc.ResponseHeaders().Get("Expires"))
	assert.Equal(t, []string{"no-cache", "no-store"}, rc.ResponseHeaders().Values("Cache-Control"))
}
