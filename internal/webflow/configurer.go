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
	"maps"
	"slices"

	"github.com/dadrus/bifrost/internal/aup"
	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// Configurer contributes states and transitions to a flow. Running a configurer again
// on the same builder yields the same graph.
type Configurer interface {
	ConfigureFlow(builder *flow.Builder) error
}

type ConfigurerFunc func(builder *flow.Builder) error

func (f ConfigurerFunc) ConfigureFlow(builder *flow.Builder) error { return f(builder) }

// Feature is a configurer together with the actions its states refer to.
type Feature interface {
	Configurer

	Actions() map[string]flow.Action
}

type Dependencies struct {
	Manager *authn.Manager
	// Providers and Selector are only required if multifactor providers are configured.
	Providers *mfa.Providers
	Selector  *mfa.Selector
	AUP       aup.Repository
	Consent   consent.Repository
	Tickets   *TicketRegistry
	MFA       config.MFAConfig
	Webflow   config.WebflowConfig
}

type Flows struct {
	Graphs  []*flow.Graph
	Actions *flow.ActionRegistry
}

// New assembles the login and logout flows from the features enabled by the configuration.
func New(deps Dependencies) (*Flows, error) {
	loginFeatures, err := LoginFeatures(deps)
	if err != nil {
		return nil, err
	}

	logoutFeatures := LogoutFeatures(deps)
	actions := flow.NewActionRegistry()

	for _, feature := range slices.Concat(loginFeatures, logoutFeatures) {
		featureActions := feature.Actions()

		for _, name := range slices.Sorted(maps.Keys(featureActions)) {
			if err = actions.Register(name, featureActions[name]); err != nil {
				return nil, err
			}
		}
	}

	login, err := Build(FlowLogin, loginFeatures...)
	if err != nil {
		return nil, err
	}

	logout, err := Build(FlowLogout, logoutFeatures...)
	if err != nil {
		return nil, err
	}

	return &Flows{Graphs: []*flow.Graph{login, logout}, Actions: actions}, nil
}

// LoginFeatures returns the features making up the login flow in the order they have to
// be applied.
func LoginFeatures(deps Dependencies) ([]Feature, error) {
	if deps.Manager == nil || deps.Tickets == nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"login flow requires an authentication manager and a ticket registry")
	}

	auth := &authenticator{manager: deps.Manager}
	withMFA := deps.Providers != nil && deps.Providers.Len() != 0

	if withMFA {
		if deps.Selector == nil {
			return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
				"multifactor providers configured without a selector")
		}

		auth.selector = deps.Selector
	}

	features := []Feature{&loginFeature{auth: auth, tickets: deps.Tickets}}

	if deps.Webflow.X509.Enabled {
		features = append(features, &x509Feature{auth: auth})
	}

	if withMFA {
		features = append(features, &mfaFeature{
			manager:          deps.Manager,
			providers:        deps.Providers,
			contextAttribute: deps.MFA.AuthenticationContextAttribute,
		})
	}

	if deps.Webflow.AUP.Enabled {
		if deps.AUP == nil {
			return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
				"acceptable usage policy enabled without a repository")
		}

		features = append(features, &aupFeature{repository: deps.AUP})
	}

	if deps.Webflow.Consent.Enabled {
		if deps.Consent == nil {
			return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
				"consent enabled without a repository")
		}

		features = append(features, &consentFeature{
			repository:    deps.Consent,
			reminder:      deps.Webflow.Consent.Reminder,
			defaultOption: deps.Webflow.Consent.DefaultOption,
		})
	}

	return features, nil
}

func LogoutFeatures(deps Dependencies) []Feature {
	return []Feature{&logoutFeature{tickets: deps.Tickets}}
}

// Build applies the configurers to a fresh builder and validates the result.
func Build[C Configurer](flowID string, configurers ...C) (*flow.Graph, error) {
	builder := flow.NewBuilder(flowID)

	for _, configurer := range configurers {
		if err := configurer.ConfigureFlow(builder); err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed configuring flow '%s'", flowID).CausedBy(err)
		}
	}

	return builder.Build()
}

// graphWriter records the first error of a sequence of builder calls.
type graphWriter struct {
	b   *flow.Builder
	err error
}

func (w *graphWriter) action(id, action string) {
	if w.err == nil {
		w.err = w.b.CreateActionState(id, action)
	}
}

func (w *graphWriter) view(id, view string) {
	if w.err == nil {
		w.err = w.b.CreateViewState(id, view)
	}
}

func (w *graphWriter) end(id, result string) {
	if w.err == nil {
		w.err = w.b.CreateEndState(id, result)
	}
}

func (w *graphWriter) on(stateID string, outcome flow.Outcome, target string) {
	if w.err == nil {
		w.err = w.b.AddTransition(stateID, outcome, target)
	}
}

func (w *graphWriter) exit(stateID, action string) {
	if w.err == nil {
		w.err = w.b.AddExitAction(stateID, action)
	}
}

func (w *graphWriter) signature(action string, outcomes ...flow.Outcome) {
	if w.err == nil {
		w.err = w.b.RegisterSignature(flow.ActionSignature{Action: action, Outcomes: outcomes})
	}
}

// route adds the outcome to the state unless it already leads to the target.
func (w *graphWriter) route(stateID string, outcome flow.Outcome, target string) {
	if w.err == nil {
		_, w.err = w.b.SpliceIntoExistingState(stateID, outcome, target, false)
	}
}

// intercept redirects every outcome routed to target to entry instead. The sub flow starting
// at entry has to continue with target itself.
func (w *graphWriter) intercept(target, entry string) {
	for _, ref := range w.b.TransitionsTo(target) {
		if w.err != nil {
			return
		}

		_, w.err = w.b.SpliceIntoExistingState(ref.StateID, ref.On, entry, true)
	}
}

// splice redirects the outcome of the state to entry and returns the state the sub flow
// has to continue with.
func (w *graphWriter) splice(stateID string, outcome flow.Outcome, entry string) string {
	if w.err != nil {
		return ""
	}

	previous, err := w.b.SpliceIntoExistingState(stateID, outcome, entry, true)
	if err != nil {
		w.err = err

		return ""
	}

	if len(previous) == 0 {
		w.err = errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"outcome '%s' of state '%s' has no target to continue with after '%s'", outcome, stateID, entry)
	}

	return previous
}
