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

package authn

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type AttemptObserver interface {
	ObserveAuthenticationAttempt(handler string, success bool)
}

type noopObserver struct{}

func (noopObserver) ObserveAuthenticationAttempt(string, bool) {}

type ManagerOption func(m *Manager)

func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithAttemptObserver(observer AttemptObserver) ManagerOption {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// Manager authenticates credentials using the plan of the registry.
type Manager struct {
	registry *Registry
	clock    func() time.Time
	observer AttemptObserver
}

func NewManager(registry *Registry, opts ...ManagerOption) *Manager {
	manager := &Manager{
		registry: registry,
		clock:    time.Now,
		observer: noopObserver{},
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// Authenticate tries the resolved handlers in order and stops at the first success. If previous
// is given, the result extends it, keeping its principal.
func (m *Manager) Authenticate(ctx context.Context, cred Credential, previous *Authentication) (*Authentication, error) {
	logger := zerolog.Ctx(ctx)

	handlers, err := m.registry.Resolve(cred)
	if err != nil {
		logger.Warn().Err(err).Str("_variant", string(cred.Variant())).Msg("No handler available")

		return nil, err
	}

	var lastErr error

	for _, handler := range handlers {
		logger.Debug().Str("_name", handler.Name()).Msg("Executing authentication handler")

		principal, err := handler.Authenticate(ctx, cred)
		if err != nil {
			m.observer.ObserveAuthenticationAttempt(handler.Name(), false)
			logger.Info().Err(err).Str("_name", handler.Name()).Msg("Authentication handler failed")

			lastErr = err

			continue
		}

		m.observer.ObserveAuthenticationAttempt(handler.Name(), true)

		return m.buildAuthentication(principal, cred, handler.Name(), previous), nil
	}

	if errors.Is(lastErr, bifrost.ErrAuthentication) {
		return nil, lastErr
	}

	return nil, errorchain.NewWithMessage(bifrost.ErrAuthentication,
		"all authentication handlers failed").CausedBy(lastErr)
}

// AuthenticateWith uses the named handler only, e.g. to verify the token of a multifactor
// provider. The result extends previous.
func (m *Manager) AuthenticateWith(
	ctx context.Context, name string, cred Credential, previous *Authentication,
) (*Authentication, error) {
	handler, ok := m.registry.Handler(name)
	if !ok {
		return nil, errorchain.NewWithMessagef(bifrost.ErrNoHandlerAvailable,
			"handler '%s' is not configured", name)
	}

	if !handler.Supports(cred) {
		m.observer.ObserveAuthenticationAttempt(name, false)

		return nil, errorchain.NewWithMessagef(bifrost.ErrAuthentication,
			"handler '%s' does not support the presented credential", name)
	}

	principal, err := handler.Authenticate(ctx, cred)
	if err != nil {
		m.observer.ObserveAuthenticationAttempt(name, false)
		zerolog.Ctx(ctx).Info().Err(err).Str("_name", name).Msg("Authentication handler failed")

		if errors.Is(err, bifrost.ErrAuthentication) {
			return nil, err
		}

		return nil, errorchain.NewWithMessagef(bifrost.ErrAuthentication,
			"handler '%s' failed", name).CausedBy(err)
	}

	m.observer.ObserveAuthenticationAttempt(name, true)

	return m.buildAuthentication(principal, cred, name, previous), nil
}

func (m *Manager) buildAuthentication(
	principal *Principal, cred Credential, handler string, previous *Authentication,
) *Authentication {
	var builder *AuthenticationBuilder

	if previous != nil {
		builder = NewAuthenticationBuilderFrom(previous, m.clock())
	} else {
		builder = NewAuthenticationBuilder(principal, m.clock())
	}

	builder.AddCredential(cred).AddSuccessfulHandler(handler)

	m.registry.Populators().Populate(builder, Transaction{Credential: cred, Handler: handler})

	return builder.Build()
}
