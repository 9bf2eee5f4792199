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
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// consentFeature asks the principal to consent to the release of its attributes to the
// service before the login completes.
type consentFeature struct {
	repository    consent.Repository
	reminder      time.Duration
	defaultOption consent.ReminderOption
}

func (f *consentFeature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.action(StateConsentCheck, ActionConsentCheck)
	w.view(StateConsentView, ViewConsent)
	w.action(StateConsentConfirm, ActionConsentConfirm)

	w.signature(ActionConsentCheck, flow.OutcomeSuccess, flow.OutcomeMustAccept)

	next := w.splice(StateCreateTicketGrantingTicket, flow.OutcomeSuccess, StateConsentCheck)

	w.on(StateConsentCheck, flow.OutcomeSuccess, next)
	w.on(StateConsentCheck, flow.OutcomeMustAccept, StateConsentView)
	w.on(StateConsentView, flow.OutcomeSubmit, StateConsentConfirm)
	w.on(StateConsentView, flow.OutcomeCancel, StateLoginFailure)
	w.on(StateConsentConfirm, flow.OutcomeSuccess, next)
	w.on(StateConsentConfirm, flow.OutcomeError, StateConsentView)

	return w.err
}

func (f *consentFeature) Actions() map[string]flow.Action {
	return map[string]flow.Action{
		ActionConsentCheck:   flow.ActionFunc(f.check),
		ActionConsentConfirm: flow.ActionFunc(f.confirm),
	}
}

// check asks for consent whenever the stored decision cannot be read.
func (f *consentFeature) check(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil {
		return flow.OutcomeMustAccept, nil
	}

	decision, err := f.repository.Find(rc.Context(), auth.Principal.ID, rc.StringAttribute(AttributeService))
	if err != nil {
		zerolog.Ctx(rc.Context()).Warn().Err(err).Msg("Failed loading consent decision")

		return flow.OutcomeMustAccept, nil
	}

	if consent.IsRequired(decision, auth.Principal.Attributes, rc.Now()) {
		return flow.OutcomeMustAccept, nil
	}

	return flow.OutcomeSuccess, nil
}

func (f *consentFeature) confirm(rc *flow.RequestContext) (flow.Outcome, error) {
	auth := rc.Authentication()
	if auth == nil {
		return "", errorchain.NewWithMessage(bifrost.ErrArgument, "no authentication to consent for")
	}

	option, err := f.reminderOption(rc.FormValue(FormReminderOption))
	if err != nil {
		return "", err
	}

	decision := consent.NewDecision(auth.Principal.ID, rc.StringAttribute(AttributeService),
		option, f.reminder, auth.Principal.Attributes, rc.Now())

	if err = f.repository.Store(rc.Context(), decision); err != nil {
		return "", errorchain.NewWithMessage(bifrost.ErrInternal, "failed storing consent decision").
			CausedBy(err)
	}

	return flow.OutcomeSuccess, nil
}

func (f *consentFeature) reminderOption(value string) (consent.ReminderOption, error) {
	if len(value) == 0 {
		return f.defaultOption, nil
	}

	var (
		option consent.ReminderOption
		err    error
	)

	if code, convErr := strconv.Atoi(value); convErr == nil {
		option, err = consent.LookupByCode(code)
	} else {
		option, err = consent.LookupByName(value)
	}

	if err != nil {
		return 0, errorchain.NewWithMessage(bifrost.ErrArgument, "invalid reminder option").CausedBy(err)
	}

	return option, nil
}
