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
	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/mfa/bypass"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// mfaFeature adds a decision, challenge and verification sub flow per multifactor provider
// and routes the primary authentication states to it.
type mfaFeature struct {
	manager          *authn.Manager
	providers        *mfa.Providers
	contextAttribute string
}

func (f *mfaFeature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.end(StateMfaUnavailable, ResultMfaUnavailable)

	for _, provider := range f.providers.All() {
		f.configureProvider(w, provider.ID())
	}

	return w.err
}

func (f *mfaFeature) configureProvider(w *graphWriter, id string) {
	challenge, view, verify := mfaChallengeState(id), mfaTokenViewState(id), mfaVerifyState(id)

	w.action(id, mfaDecisionAction(id))
	w.action(challenge, mfaChallengeAction(id))
	w.view(view, ViewMfa)
	w.action(verify, mfaVerifyAction(id))

	w.signature(mfaDecisionAction(id),
		flow.OutcomeSuccess, flow.OutcomeBypass, flow.OutcomeProceed, flow.OutcomeUnavailable)

	w.on(id, flow.OutcomeSuccess, challenge)
	w.on(id, flow.OutcomeBypass, StateCreateTicketGrantingTicket)
	w.on(id, flow.OutcomeProceed, StateCreateTicketGrantingTicket)
	w.on(id, flow.OutcomeUnavailable, StateMfaUnavailable)
	w.on(challenge, flow.OutcomeSuccess, view)
	w.on(challenge, flow.OutcomeError, StateMfaUnavailable)
	w.on(view, flow.OutcomeSubmit, verify)
	w.on(view, flow.OutcomeCancel, StateLoginFailure)
	w.on(verify, flow.OutcomeSuccess, StateCreateTicketGrantingTicket)
	w.on(verify, flow.OutcomeAuthenticationFailure, view)
	w.on(verify, flow.OutcomeError, view)
	w.exit(verify, ActionClearWebflowCredentials)

	outcome := flow.MultifactorOutcome(id)

	for _, source := range []string{StateRealSubmit, StateStartX509Authenticate} {
		if w.b.HasState(source) {
			w.route(source, outcome, id)
		}
	}
}

func (f *mfaFeature) Actions() map[string]flow.Action {
	actions := make(map[string]flow.Action)

	for _, provider := range f.providers.All() {
		step := &mfaStep{
			manager:          f.manager,
			provider:         provider,
			contextAttribute: f.contextAttribute,
		}

		actions[mfaDecisionAction(provider.ID())] = flow.ActionFunc(step.decide)
		actions[mfaChallengeAction(provider.ID())] = flow.ActionFunc(step.challenge)
		actions[mfaVerifyAction(provider.ID())] = flow.ActionFunc(step.verify)
	}

	return actions
}

type mfaStep struct {
	manager          *authn.Manager
	provider         *mfa.Provider
	contextAttribute string
}

func (s *mfaStep) decide(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil {
		return flow.OutcomeUnavailable, nil
	}

	req := rc.Request()
	decision := s.provider.Decide(rc.Context(), bypass.Input{
		Authentication: auth,
		Request:        bypass.Request{RemoteAddr: req.RemoteAddr, Headers: req.Headers},
		Now:            rc.Now(),
	})

	switch decision {
	case mfa.DecisionChallenge:
		return flow.OutcomeSuccess, nil
	case mfa.DecisionBypass, mfa.DecisionPhantom:
		s.record(rc, auth, decision)

		return flow.OutcomeBypass, nil
	case mfa.DecisionProceed:
		s.record(rc, auth, decision)

		return flow.OutcomeProceed, nil
	default:
		return flow.OutcomeUnavailable, nil
	}
}

func (s *mfaStep) record(rc *flow.RequestContext, auth *authn.Authentication, decision mfa.Decision) {
	builder := authn.NewAuthenticationBuilderFrom(auth, auth.AuthenticatedAt)
	mfa.Record(builder, s.provider, decision, s.contextAttribute)

	rc.SetAuthentication(builder.Build())
}

// challenge prepares the principal for token verification. Handlers without a preparation
// step verify tokens issued for the principal id.
func (s *mfaStep) challenge(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil {
		return "", errorchain.NewWithMessage(bifrost.ErrArgument, "no primary authentication available")
	}

	handler, err := s.provider.Handler()
	if err != nil {
		return "", err
	}

	deviceID := auth.Principal.ID

	if challenger, ok := handler.(mfa.Challenger); ok {
		if deviceID, err = challenger.Challenge(rc.Context(), auth.Principal); err != nil {
			zerolog.Ctx(rc.Context()).Warn().Err(err).
				Str("_provider", s.provider.ID()).
				Msg("Multifactor challenge failed")

			return "", err
		}
	}

	rc.SetAttribute(AttributeMfaDeviceID, deviceID)

	return flow.OutcomeSuccess, nil
}

func (s *mfaStep) verify(rc *flow.RequestContext) (flow.Outcome, error) {
	cred := authn.NewOneTimeTokenCredential(rc.FormValue(FormToken), rc.StringAttribute(AttributeMfaDeviceID))
	rc.SetCredential(cred)

	auth, err := s.manager.AuthenticateWith(rc.Context(), s.provider.HandlerName(), cred, rc.Authentication())
	if err != nil {
		return "", err
	}

	builder := authn.NewAuthenticationBuilderFrom(auth, auth.AuthenticatedAt)
	builder.AddAttribute(s.contextAttribute, s.provider.ID())

	rc.SetAuthentication(builder.Build())
	rc.DeleteAttribute(AttributeMfaDeviceID)

	return flow.OutcomeSuccess, nil
}
