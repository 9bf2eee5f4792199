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

package validate

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dadrus/bifrost/cmd/flags"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/testsupport"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc     string
		args   []string
		assert func(t *testing.T, err error, summary string)
	}{
		{
			uc: "no config provided",
			assert: func(t *testing.T, err error, _ string) {
				t.Helper()

				require.ErrorIs(t, err, ErrNoConfigFile)
			},
		},
		{
			uc:   "not existing config",
			args: []string{"--" + flags.Config, "doesnotexist.yaml"},
			assert: func(t *testing.T, err error, _ string) {
				t.Helper()

				require.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			uc:   "semantically invalid config",
			args: []string{"-c", "test_data/invalid-config.yaml"},
			assert: func(t *testing.T, err error, _ string) {
				t.Helper()

				require.ErrorIs(t, err, bifrost.ErrConfiguration)
			},
		},
		{
			uc:   "valid config",
			args: []string{"-c", "test_data/config.yaml"},
			assert: func(t *testing.T, err error, summary string) {
				t.Helper()

				require.NoError(t, err)
				assert.Contains(t, summary, "2 flow(s)")
				assert.Contains(t, summary, "1 multifactor provider(s)")
			},
		},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			cmd := NewValidateConfigCommand()
			flags.RegisterGlobalFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tc.args))

			// WHEN
			summary, err := validateConfig(cmd)

			// THEN
			tc.assert(t, err, summary)
		})
	}
}

func TestRunValidateConfigCommand(t *testing.T) { // nolint: paralleltest
	for _, tc := range []struct {
		uc       string
		confFile string
		expError string
	}{
		{uc: "invalid config", confFile: "doesnotexist.yaml", expError: "no such file or dir"},
		{uc: "valid config", confFile: "test_data/config.yaml"},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			// GIVEN
			exit, err := testsupport.PatchOSExit(t, func(int) {})
			require.NoError(t, err)

			cmd := NewValidateConfigCommand()
			flags.RegisterGlobalFlags(cmd)

			buf := bytes.NewBuffer([]byte{})
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.ParseFlags([]string{"--" + flags.Config, tc.confFile}))

			// WHEN
			cmd.Run(cmd, []string{})

			// THEN
			output := buf.String()
			if len(tc.expError) != 0 {
				assert.Contains(t, output, tc.expError)
				assert.True(t, exit.Called)
				assert.Equal(t, 1, exit.Code)
			} else {
				assert.Contains(t, output, "Configuration is valid: 2 flow(s)")
				assert.False(t, exit.Called)
			}
		})
	}
}
