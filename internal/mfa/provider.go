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

package mfa

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/mfa/bypass"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// HandlerLookup gives access to the handlers of the current authentication plan.
type HandlerLookup interface {
	Handler(name string) (authn.Handler, bool)
}

// AvailabilityProbe is implemented by handlers which can tell whether the
// service behind them is reachable.
type AvailabilityProbe interface {
	Available(ctx context.Context) bool
}

// Challenger is implemented by handlers which have to prepare the principal before
// a token can be verified, e.g. by registering it with the verification service.
type Challenger interface {
	Challenge(ctx context.Context, principal *authn.Principal) (string, error)
}

type DecisionObserver interface {
	ObserveMFADecision(provider string, decision Decision)
}

type noopObserver struct{}

func (noopObserver) ObserveMFADecision(string, Decision) {}

type Provider struct {
	id          string
	rank        int
	failureMode config.FailureMode
	handler     string
	bypass      bypass.Evaluator
	handlers    HandlerLookup
	observer    DecisionObserver
}

func (p *Provider) ID() string                      { return p.id }
func (p *Provider) Rank() int                       { return p.rank }
func (p *Provider) FailureMode() config.FailureMode { return p.failureMode }
func (p *Provider) HandlerName() string             { return p.handler }

// Handler returns the handler verifying the tokens of this provider from the current plan.
func (p *Provider) Handler() (authn.Handler, error) {
	handler, ok := p.handlers.Handler(p.handler)
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrNoHandlerAvailable,
			"handler '%s' of multifactor provider '%s' is not configured", p.handler, p.id)
	}

	return handler, nil
}

// Decide evaluates the bypass rules first. Only if they do not apply, availability
// of the provider is checked and the failure mode consulted if it is not available.
func (p *Provider) Decide(ctx context.Context, in bypass.Input) Decision {
	decision := p.decide(ctx, in)

	p.observer.ObserveMFADecision(p.id, decision)

	zerolog.Ctx(ctx).Debug().
		Str("_provider", p.id).
		Str("_decision", decision.String()).
		Msg("Multifactor decision made")

	return decision
}

func (p *Provider) decide(ctx context.Context, in bypass.Input) Decision {
	if p.bypass.Evaluate(p.id, in) {
		return DecisionBypass
	}

	if p.available(ctx) {
		return DecisionChallenge
	}

	zerolog.Ctx(ctx).Warn().
		Str("_provider", p.id).
		Str("_failure_mode", p.failureMode.String()).
		Msg("Multifactor provider is not available")

	// nolint: exhaustive
	switch p.failureMode {
	case config.FailureModeOpen:
		return DecisionProceed
	case config.FailureModePhantom:
		return DecisionPhantom
	default:
		return DecisionDeny
	}
}

func (p *Provider) available(ctx context.Context) bool {
	handler, err := p.Handler()
	if err != nil {
		return false
	}

	probe, ok := handler.(AvailabilityProbe)

	return !ok || probe.Available(ctx)
}
