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

package authn_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/authn/mocks"
	"github.com/dadrus/bifrost/internal/bifrost"
)

func handlerNames(handlers []authn.Handler) []string {
	names := make([]string, len(handlers))
	for idx, handler := range handlers {
		names[idx] = handler.Name()
	}

	return names
}

func TestRegistryRegisterRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	// GIVEN
	registry := authn.NewRegistry()
	require.NoError(t, registry.Register(mocks.NewHandlerMock("users", true, authn.VariantPassword)))

	// WHEN
	err := registry.Register(mocks.NewHandlerMock("users", true, authn.VariantToken))

	// THEN
	require.Error(t, err)
	require.ErrorIs(t, err, bifrost.ErrConfiguration)
	assert.Contains(t, err.Error(), "'users' is already registered")
	assert.Len(t, registry.Handlers(), 1)
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	password := authn.NewUsernamePasswordCredential("alice", "secret")
	token := authn.NewOneTimeTokenCredential("123456", "alice")

	for _, tc := range []struct {
		uc        string
		handlers  []authn.Handler
		resolvers []authn.Resolver
		cred      authn.Credential
		assert    func(t *testing.T, err error, handlers []authn.Handler)
	}{
		{
			uc: "registration order is preserved",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("ldap", true, authn.VariantPassword),
				mocks.NewHandlerMock("x509", false, authn.VariantCertificate),
				mocks.NewHandlerMock("static", true, authn.VariantPassword),
			},
			cred: password,
			assert: func(t *testing.T, err error, handlers []authn.Handler) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []string{"ldap", "static"}, handlerNames(handlers))
			},
		},
		{
			uc: "no supporting handler",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("x509", false, authn.VariantCertificate),
			},
			cred: password,
			assert: func(t *testing.T, err error, _ []authn.Handler) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, bifrost.ErrNoHandlerAvailable)
				require.NotErrorIs(t, err, bifrost.ErrAuthentication)
			},
		},
		{
			uc:   "empty registry",
			cred: token,
			assert: func(t *testing.T, err error, _ []authn.Handler) {
				t.Helper()

				require.ErrorIs(t, err, bifrost.ErrNoHandlerAvailable)
			},
		},
		{
			uc: "by credential type narrows to exact variant",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("catch-all", true, authn.VariantPassword),
				mocks.NewHandlerMock("authy", true, authn.VariantToken),
			},
			resolvers: []authn.Resolver{authn.ByCredentialType(authn.VariantToken)},
			cred:      token,
			assert: func(t *testing.T, err error, handlers []authn.Handler) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []string{"authy"}, handlerNames(handlers))
			},
		},
		{
			uc: "by credential type not applicable falls back to default",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("catch-all", true, authn.VariantPassword),
				mocks.NewHandlerMock("authy", true, authn.VariantToken),
			},
			resolvers: []authn.Resolver{authn.ByCredentialType(authn.VariantToken)},
			cred:      password,
			assert: func(t *testing.T, err error, handlers []authn.Handler) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []string{"catch-all", "authy"}, handlerNames(handlers))
			},
		},
		{
			uc: "by name",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("ldap", true, authn.VariantPassword),
				mocks.NewHandlerMock("static", true, authn.VariantPassword),
			},
			resolvers: []authn.Resolver{authn.ByName([]string{"static"})},
			cred:      password,
			assert: func(t *testing.T, err error, handlers []authn.Handler) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []string{"static"}, handlerNames(handlers))
			},
		},
		{
			uc: "results of several resolvers are merged in registration order",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("a", true, authn.VariantPassword),
				mocks.NewHandlerMock("b", true, authn.VariantPassword),
				mocks.NewHandlerMock("c", true, authn.VariantPassword),
			},
			resolvers: []authn.Resolver{
				authn.ByName([]string{"c"}),
				authn.ByName([]string{"a"}, authn.VariantPassword),
			},
			cred: password,
			assert: func(t *testing.T, err error, handlers []authn.Handler) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []string{"a", "c"}, handlerNames(handlers))
			},
		},
		{
			uc: "by name selecting a handler not supporting the credential",
			handlers: []authn.Handler{
				mocks.NewHandlerMock("x509", false, authn.VariantCertificate),
			},
			resolvers: []authn.Resolver{authn.ByName([]string{"x509"})},
			cred:      password,
			assert: func(t *testing.T, err error, _ []authn.Handler) {
				t.Helper()

				require.ErrorIs(t, err, bifrost.ErrNoHandlerAvailable)
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			registry := authn.NewRegistry()
			for _, handler := range tc.handlers {
				require.NoError(t, registry.Register(handler))
			}

			for _, resolver := range tc.resolvers {
				registry.RegisterResolver(resolver)
			}

			before := handlerNames(registry.Handlers())

			// WHEN
			handlers, err := registry.Resolve(tc.cred)

			// THEN
			tc.assert(t, err, handlers)
			assert.Equal(t, before, handlerNames(registry.Handlers()))
		})
	}
}

func TestRegistrySwapIsAtomicForReaders(t *testing.T) {
	t.Parallel()

	// GIVEN
	registry := authn.NewRegistry()
	require.NoError(t, registry.Register(mocks.NewHandlerMock("a1", true, authn.VariantPassword)))
	require.NoError(t, registry.Register(mocks.NewHandlerMock("a2", true, authn.VariantPassword)))

	replacement := authn.NewRegistry()
	require.NoError(t, replacement.Register(mocks.NewHandlerMock("b1", true, authn.VariantPassword)))
	require.NoError(t, replacement.Register(mocks.NewHandlerMock("b2", true, authn.VariantPassword)))

	cred := authn.NewUsernamePasswordCredential("alice", "secret")

	var wg sync.WaitGroup

	// WHEN
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 200 {
				handlers, err := registry.Resolve(cred)
				if !assert.NoError(t, err) {
					return
				}

				names := handlerNames(handlers)
				assert.True(t,
					assert.ObjectsAreEqual([]string{"a1", "a2"}, names) ||
						assert.ObjectsAreEqual([]string{"b1", "b2"}, names),
					"observed partial registry %v", names)
			}
		}()
	}

	registry.Swap(replacement)
	wg.Wait()

	// THEN
	assert.Equal(t, []string{"b1", "b2"}, handlerNames(registry.Handlers()))
}

func TestNewRegistryFromConfigurers(t *testing.T) {
	t.Parallel()

	// WHEN
	registry, err := authn.NewRegistryFrom(
		authn.ConfigurerFunc(func(r *authn.Registry) error {
			return r.Register(mocks.NewHandlerMock("a", true, authn.VariantPassword))
		}),
		authn.ConfigurerFunc(func(r *authn.Registry) error {
			return r.Register(mocks.NewHandlerMock("a", true, authn.VariantPassword))
		}),
	)

	// THEN
	require.ErrorIs(t, err, bifrost.ErrConfiguration)
	assert.Nil(t, registry)
}
