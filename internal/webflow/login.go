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
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// authenticator runs the primary authentication and decides whether a multifactor
// provider has to be involved afterwards.
type authenticator struct {
	manager  *authn.Manager
	selector *mfa.Selector
}

func (a *authenticator) authenticate(rc *flow.RequestContext, cred authn.Credential) (flow.Outcome, error) {
	auth, err := a.manager.Authenticate(rc.Context(), cred, nil)
	if err != nil {
		return "", err
	}

	rc.SetAuthentication(auth)

	if a.selector != nil {
		if provider, ok := a.selector.Select(auth); ok {
			zerolog.Ctx(rc.Context()).Debug().
				Str("_provider", provider.ID()).
				Msg("Multifactor authentication triggered")

			return flow.MultifactorOutcome(provider.ID()), nil
		}
	}

	if messages := warnings(auth); len(messages) != 0 {
		rc.SetAttribute(AttributeWarnings, messages)

		return flow.OutcomeWarn, nil
	}

	return flow.OutcomeSuccess, nil
}

type loginFeature struct {
	auth    *authenticator
	tickets *TicketRegistry
}

func (f *loginFeature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.action(StateInitialFlowSetup, ActionInitialFlowSetup)
	w.action(StateInitializeLoginForm, ActionInitializeLoginForm)
	w.view(StateViewLoginForm, ViewLogin)
	w.action(StateRealSubmit, ActionAuthenticate)
	w.view(StateWarn, ViewWarning)
	w.action(StateCreateTicketGrantingTicket, ActionCreateTicketGrantingTicket)
	w.end(StateLoginSuccess, ResultSuccess)
	w.end(StateLoginFailure, ResultFailure)

	w.signature(ActionInitialFlowSetup, flow.OutcomeSuccess)
	w.signature(ActionInitializeLoginForm, flow.OutcomeSuccess)

	w.on(StateInitialFlowSetup, flow.OutcomeSuccess, StateInitializeLoginForm)
	w.on(StateInitializeLoginForm, flow.OutcomeSuccess, StateViewLoginForm)
	w.on(StateViewLoginForm, flow.OutcomeSubmit, StateRealSubmit)
	w.on(StateRealSubmit, flow.OutcomeSuccess, StateCreateTicketGrantingTicket)
	w.on(StateRealSubmit, flow.OutcomeWarn, StateWarn)
	w.on(StateRealSubmit, flow.OutcomeAuthenticationFailure, StateInitializeLoginForm)
	w.on(StateRealSubmit, flow.OutcomeError, StateInitializeLoginForm)
	w.on(StateWarn, flow.OutcomeProceed, StateCreateTicketGrantingTicket)
	w.on(StateCreateTicketGrantingTicket, flow.OutcomeSuccess, StateLoginSuccess)
	w.on(StateCreateTicketGrantingTicket, flow.OutcomeError, StateLoginFailure)
	w.exit(StateRealSubmit, ActionClearWebflowCredentials)

	builder.SetStartState(StateInitialFlowSetup)

	return w.err
}

func (f *loginFeature) Actions() map[string]flow.Action {
	return map[string]flow.Action{
		ActionInitialFlowSetup:           flow.ActionFunc(initialFlowSetup),
		ActionInitializeLoginForm:        flow.ActionFunc(initializeLoginForm),
		ActionAuthenticate:               flow.ActionFunc(f.authenticate),
		ActionClearWebflowCredentials:    flow.ActionFunc(clearWebflowCredentials),
		ActionCreateTicketGrantingTicket: flow.ActionFunc(f.createTicketGrantingTicket),
	}
}

func initialFlowSetup(rc *flow.RequestContext) (flow.Outcome, error) {
	if service := rc.FormValue(FormService); len(service) != 0 {
		rc.SetAttribute(AttributeService, service)
	}

	return flow.OutcomeSuccess, nil
}

func initializeLoginForm(rc *flow.RequestContext) (flow.Outcome, error) {
	rc.SetAuthentication(nil)

	return flow.OutcomeSuccess, nil
}

func clearWebflowCredentials(rc *flow.RequestContext) (flow.Outcome, error) {
	rc.ClearCredential()

	return flow.OutcomeSuccess, nil
}

// authenticate prefers the credential submitted with the login form over one collected
// from the request.
func (f *loginFeature) authenticate(rc *flow.RequestContext) (flow.Outcome, error) {
	username, password := rc.FormValue(FormUsername), rc.FormValue(FormPassword)
	if len(username) != 0 && len(password) != 0 {
		rc.SetCredential(authn.NewUsernamePasswordCredential(username, password))
	}

	cred := rc.Credential()
	if cred == nil {
		return "", errorchain.NewWithMessage(bifrost.ErrArgument, "no credential provided")
	}

	return f.auth.authenticate(rc, cred)
}

func (f *loginFeature) createTicketGrantingTicket(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil {
		return "", errorchain.NewWithMessage(bifrost.ErrArgument, "no authentication to create a ticket for")
	}

	id, err := f.tickets.Create(rc.Context(), auth)
	if err != nil {
		return "", err
	}

	rc.SetAttribute(AttributeTicketGrantingTicketID, id)

	zerolog.Ctx(rc.Context()).Info().
		Str("_principal", auth.Principal.ID).
		Msg("Single sign-on session established")

	return flow.OutcomeSuccess, nil
}

func warnings(auth *authn.Authentication) []string {
	values, _ := auth.Attribute(AttributeWarnings)
	result := make([]string, 0, len(values))

	for _, value := range values {
		result = append(result, fmt.Sprint(value))
	}

	return result
}
