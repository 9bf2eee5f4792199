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

	"github.com/dadrus/bifrost/internal/aup"
	"github.com/dadrus/bifrost/internal/flow"
)

// aupFeature asks the principal to accept the usage policy before a ticket granting ticket
// is created, whichever authentication path led there.
type aupFeature struct {
	repository aup.Repository
}

func (f *aupFeature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.action(StateAUPCheck, ActionAUPCheck)
	w.view(StateAUPView, ViewAUP)
	w.action(StateAUPSubmit, ActionAUPSubmit)

	w.signature(ActionAUPCheck, flow.OutcomeSuccess, flow.OutcomeMustAccept)
	w.signature(ActionAUPSubmit, flow.OutcomeSuccess, flow.OutcomeError)

	w.intercept(StateCreateTicketGrantingTicket, StateAUPCheck)

	next := StateCreateTicketGrantingTicket

	w.on(StateAUPCheck, flow.OutcomeSuccess, next)
	w.on(StateAUPCheck, flow.OutcomeMustAccept, StateAUPView)
	w.on(StateAUPView, flow.OutcomeSubmit, StateAUPSubmit)
	w.on(StateAUPView, flow.OutcomeCancel, StateLoginFailure)
	w.on(StateAUPSubmit, flow.OutcomeSuccess, next)
	w.on(StateAUPSubmit, flow.OutcomeError, StateAUPView)

	return w.err
}

func (f *aupFeature) Actions() map[string]flow.Action {
	return map[string]flow.Action{
		ActionAUPCheck:  flow.ActionFunc(f.check),
		ActionAUPSubmit: flow.ActionFunc(f.submit),
	}
}

// check treats a missing authentication like a policy not accepted.
func (f *aupFeature) check(rc *flow.RequestContext) (flow.Outcome, error) {
	if auth := rc.Authentication(); auth != nil && f.repository.IsAccepted(rc.Context(), auth.Principal) {
		return flow.OutcomeSuccess, nil
	}

	return flow.OutcomeMustAccept, nil
}

func (f *aupFeature) submit(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil || !f.repository.Submit(rc.Context(), auth.Principal) {
		zerolog.Ctx(rc.Context()).Warn().Msg("Acceptance of the usage policy could not be recorded")

		return flow.OutcomeError, nil
	}

	return flow.OutcomeSuccess, nil
}
