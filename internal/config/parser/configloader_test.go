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

package parser_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config/parser"
	"github.com/dadrus/bifrost/internal/x/testsupport"
)

type handlerConfig struct {
	ID   string         `koanf:"id"`
	Type string         `koanf:"type"`
	Conf map[string]any `koanf:"config"`
}

type testConfig struct {
	Name     string          `koanf:"name"`
	Timeout  time.Duration   `koanf:"timeout"`
	Handlers []handlerConfig `koanf:"handlers"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	return file
}

func TestConfigLoaderLoad(t *testing.T) {
	for _, tc := range []struct {
		uc     string
		config string
		env    map[string]string
		opts   func(file string) []parser.Option
		assert func(t *testing.T, err error, conf *testConfig)
	}{
		{
			uc: "defaults only",
			opts: func(_ string) []parser.Option {
				return []parser.Option{parser.WithEnvPrefix("BIFROSTTEST_")}
			},
			assert: func(t *testing.T, err error, conf *testConfig) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "default", conf.Name)
				assert.Equal(t, time.Minute, conf.Timeout)
			},
		},
		{
			uc: "file overrides defaults and env overrides file",
			config: `
name: ${TEST_NAME_FROM_FILE}
timeout: 10s
handlers:
  - id: certificates
    type: x509
  - id: users
    type: static_users
`,
			env: map[string]string{
				"TEST_NAME_FROM_FILE":                  "from-file",
				"BIFROSTTEST_HANDLERS_1_TYPE":          "jwt",
				"BIFROSTTEST_HANDLERS_1_CONFIG_ISSUER": "https://issuer",
			},
			opts: func(file string) []parser.Option {
				return []parser.Option{parser.WithConfigFile(file), parser.WithEnvPrefix("BIFROSTTEST_")}
			},
			assert: func(t *testing.T, err error, conf *testConfig) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "from-file", conf.Name)
				assert.Equal(t, 10*time.Second, conf.Timeout)
				require.Len(t, conf.Handlers, 2)
				assert.Equal(t, "x509", conf.Handlers[0].Type)
				assert.Equal(t, "users", conf.Handlers[1].ID)
				assert.Equal(t, "jwt", conf.Handlers[1].Type)
				assert.Equal(t, "https://issuer", conf.Handlers[1].Conf["issuer"])
			},
		},
		{
			uc:     "validator rejects file",
			config: "name: foo",
			opts: func(file string) []parser.Option {
				return []parser.Option{
					parser.WithConfigFile(file),
					parser.WithConfigValidator(func(string) error { return testsupport.ErrTestPurpose }),
				}
			},
			assert: func(t *testing.T, err error, _ *testConfig) {
				t.Helper()

				require.ErrorIs(t, err, testsupport.ErrTestPurpose)
			},
		},
		{
			uc:     "invalid yaml",
			config: "name: [foo",
			opts: func(file string) []parser.Option {
				return []parser.Option{parser.WithConfigFile(file)}
			},
			assert: func(t *testing.T, err error, _ *testConfig) {
				t.Helper()

				require.ErrorIs(t, err, bifrost.ErrConfiguration)
			},
		},
		{
			uc: "not existing file",
			opts: func(_ string) []parser.Option {
				return []parser.Option{parser.WithConfigFile("/does/not/exist.yaml")}
			},
			assert: func(t *testing.T, err error, _ *testConfig) {
				t.Helper()

				require.Error(t, err)
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			// GIVEN
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			var file string
			if len(tc.config) != 0 {
				file = writeConfig(t, tc.config)
			}

			conf := testConfig{Name: "default", Timeout: time.Minute}

			// WHEN
			err := parser.New(tc.opts(file)...).Load(&conf)

			// THEN
			tc.assert(t, err, &conf)
		})
	}
}
