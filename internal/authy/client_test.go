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

package authy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/bifrost"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "test-key", WithRetry(time.Millisecond, 10*time.Millisecond))
	require.NoError(t, err)

	return client
}

func TestClientVerifyToken(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc      string
		handler func(t *testing.T) http.HandlerFunc
		assert  func(t *testing.T, err error)
	}{
		{
			uc: "token verified",
			handler: func(t *testing.T) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, http.MethodGet, r.Method)
					assert.Equal(t, "/protected/json/verify/0000000/1234", r.URL.Path)
					assert.Equal(t, "true", r.URL.Query().Get("force"))
					assert.Equal(t, "test-key", r.Header.Get("X-Authy-API-Key"))

					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(`{"success":true,"message":"Token is valid."}`))
				}
			},
			assert: func(t *testing.T, err error) {
				t.Helper()

				require.NoError(t, err)
			},
		},
		{
			uc: "token rejected",
			handler: func(t *testing.T) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"success":false,"message":"Token is invalid"}`))
				}
			},
			assert: func(t *testing.T, err error) {
				t.Helper()

				require.ErrorIs(t, err, ErrVerificationFailed)
				require.ErrorContains(t, err, "Token is invalid")
			},
		},
		{
			uc: "success flag missing",
			handler: func(t *testing.T) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(`{}`))
				}
			},
			assert: func(t *testing.T, err error) {
				t.Helper()

				require.ErrorIs(t, err, ErrVerificationFailed)
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			client := newTestClient(t, tc.handler(t))

			// WHEN
			err := client.VerifyToken(context.Background(), "1234", "0000000")

			// THEN
			tc.assert(t, err)
		})
	}
}

func TestClientVerifyTokenTimeout(t *testing.T) {
	t.Parallel()

	// GIVEN
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)

		_, _ = w.Write([]byte(`{"success":true}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// WHEN
	err := client.VerifyToken(ctx, "1234", "0000000")

	// THEN
	require.ErrorIs(t, err, bifrost.ErrCommunicationTimeout)
}

func TestClientRegisterUser(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc      string
		handler http.HandlerFunc
		assert  func(t *testing.T, id string, err error)
	}{
		{
			uc: "user registered",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/protected/json/users/new" {
					w.WriteHeader(http.StatusNotFound)

					return
				}

				if err := r.ParseForm(); err != nil ||
					r.PostForm.Get("user[email]") != "alice@example.com" ||
					r.PostForm.Get("user[cellphone]") != "555-123-4567" ||
					r.PostForm.Get("user[country_code]") != "49" {
					w.WriteHeader(http.StatusBadRequest)

					return
				}

				_, _ = w.Write([]byte(`{"success":true,"user":{"id":42}}`))
			},
			assert: func(t *testing.T, id string, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "42", id)
			},
		},
		{
			uc: "registration rejected",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"success":false,"message":"User was not valid"}`))
			},
			assert: func(t *testing.T, _ string, err error) {
				t.Helper()

				require.ErrorIs(t, err, bifrost.ErrCommunication)
				require.ErrorContains(t, err, "User was not valid")
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tc.handler)

			id, err := client.RegisterUser(context.Background(), "alice@example.com", "555-123-4567", 49)

			tc.assert(t, id, err)
		})
	}
}

func TestClientPing(t *testing.T) {
	t.Parallel()

	// GIVEN
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/protected/json/app/details", r.URL.Path)

		_, _ = w.Write([]byte(`{"success":true}`))
	})
	unhealthy := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	unreachable, err := NewClient("http://127.0.0.1:1", "test-key", WithRetry(time.Millisecond, 5*time.Millisecond))
	require.NoError(t, err)

	// WHEN & THEN
	require.NoError(t, healthy.Ping(context.Background()))
	require.ErrorIs(t, unhealthy.Ping(context.Background()), bifrost.ErrCommunication)
	require.ErrorIs(t, unreachable.Ping(context.Background()), bifrost.ErrCommunication)
}
