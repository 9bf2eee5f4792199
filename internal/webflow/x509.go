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
	"github.com/dadrus/bifrost/internal/flow"
)

// x509Feature tries to authenticate the client certificate presented with the request
// before the login form is shown.
type x509Feature struct {
	auth *authenticator
}

func (f *x509Feature) ConfigureFlow(builder *flow.Builder) error {
	w := &graphWriter{b: builder}

	w.action(StateStartX509Authenticate, ActionX509Check)
	w.on(StateStartX509Authenticate, flow.OutcomeSuccess, StateCreateTicketGrantingTicket)
	w.on(StateStartX509Authenticate, flow.OutcomeWarn, StateWarn)
	w.on(StateStartX509Authenticate, flow.OutcomeError, StateViewLoginForm)
	w.on(StateStartX509Authenticate, flow.OutcomeAuthenticationFailure, StateViewLoginForm)
	w.exit(StateStartX509Authenticate, ActionClearWebflowCredentials)
	w.splice(StateInitialFlowSetup, flow.OutcomeSuccess, StateStartX509Authenticate)

	return w.err
}

func (f *x509Feature) Actions() map[string]flow.Action {
	return map[string]flow.Action{ActionX509Check: flow.ActionFunc(f.check)}
}

func (f *x509Feature) check(rc *flow.RequestContext) (flow.Outcome, error) {
	cred, ok := rc.Credential().(*authn.X509CertificateCredential)
	if !ok || cred.Certificate() == nil {
		zerolog.Ctx(rc.Context()).Debug().Msg("No client certificate presented")

		return flow.OutcomeError, nil
	}

	return f.auth.authenticate(rc, cred)
}
