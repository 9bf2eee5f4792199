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

	"github.com/dadrus/bifrost/internal/flow"
)

type logoutFeature struct {
	tickets *TicketRegistry
}

func (f *logoutFeature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.action(StateTerminateSession, ActionTerminateSession)
	w.action(StateFinishLogout, ActionFinishLogout)
	w.end(StateLogoutFinished, ResultLogout)

	w.signature(ActionTerminateSession, flow.OutcomeSuccess)
	w.signature(ActionFinishLogout, flow.OutcomeSuccess)

	w.on(StateTerminateSession, flow.OutcomeSuccess, StateFinishLogout)
	w.on(StateFinishLogout, flow.OutcomeSuccess, StateLogoutFinished)

	builder.SetStartState(StateTerminateSession)

	return w.err
}

func (f *logoutFeature) Actions() map[string]flow.Action {
	return map[string]flow.Action{
		ActionTerminateSession: PreventCaching(flow.ActionFunc(f.terminateSession)),
		ActionFinishLogout:     PreventCaching(flow.ActionFunc(finishLogout)),
	}
}

// PreventCaching sets the response headers forbidding any cache to store the response
// before the wrapped action runs. The headers are set even if the action fails.
func PreventCaching(action flow.Action) flow.Action {
	return flow.ActionFunc(func(rc *flow.RequestContext) (flow.Outcome, error) {
		headers := rc.ResponseHeaders()
		headers.Set("Pragma", "no-cache")
		headers.Set("Expires", "1")
		headers.Set("Cache-Control", "no-cache")
		headers.Add("Cache-Control", "no-store")

		return action.Execute(rc)
	})
}

// terminateSession destroys the ticket granting ticket if there is one. A session which
// cannot be found is considered terminated.
func (f *logoutFeature) terminateSession(rc *flow.RequestContext) (flow.Outcome, error) {
	logger := zerolog.Ctx(rc.Context())

	id := rc.FormValue(FormTicketGrantingTicketID)
	if len(id) == 0 {
		logger.Debug().Msg("No single sign-on session to terminate")

		return flow.OutcomeSuccess, nil
	}

	if auth, err := f.tickets.Get(rc.Context(), id); err == nil {
		rc.SetAttribute(AttributeLoggedOutPrincipal, auth.Principal.ID)
	}

	if err := f.tickets.Destroy(rc.Context(), id); err != nil {
		logger.Warn().Err(err).Msg("Failed terminating single sign-on session")
	}

	return flow.OutcomeSuccess, nil
}

func finishLogout(rc *flow.RequestContext) (flow.Outcome, error) {
	if service := rc.FormValue(FormService); len(service) != 0 {
		rc.SetAttribute(AttributeLogoutRedirectURL, service)
	}

	return flow.OutcomeSuccess, nil
}
