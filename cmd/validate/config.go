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
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dadrus/bifrost/cmd/flags"
	"github.com/dadrus/bifrost/internal/app"
	"github.com/dadrus/bifrost/internal/config"
)

var ErrNoConfigFile = errors.New("no config file provided")

// NewValidateConfigCommand represents the "validate config" command.
func NewValidateConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "Validates bifrost's configuration",
		Example: "bifrost validate config -c myconfig.yaml",
		Run: func(cmd *cobra.Command, _ []string) {
			summary, err := validateConfig(cmd)
			if err != nil {
				cmd.PrintErrf("%v\n", err)

				os.Exit(1)
			}

			cmd.Println("Configuration is valid: " + summary)
		},
	}
}

// validateConfig assembles the application and summarizes what the configuration defines.
func validateConfig(cmd *cobra.Command) (string, error) {
	application, err := LoadApp(cmd)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d flow(s), %d authentication handler(s), %d multifactor provider(s)",
		len(application.Flows().Graphs),
		len(application.Registry().Handlers()),
		application.Providers().Len(),
	), nil
}

// LoadApp loads the configuration referenced by the command flags and assembles all
// components from it without starting any of them. Metrics are not collected.
func LoadApp(cmd *cobra.Command) (*app.App, error) {
	configPath, _ := cmd.Flags().GetString(flags.Config)
	if len(configPath) == 0 {
		return nil, ErrNoConfigFile
	}

	envPrefix, _ := cmd.Flags().GetString(flags.EnvironmentConfigPrefix)

	conf, err := config.NewConfiguration(config.EnvVarPrefix(envPrefix), config.ConfigurationPath(configPath))
	if err != nil {
		return nil, err
	}

	conf.Metrics.Enabled = false

	return app.New(conf, app.WithLogger(zerolog.Nop()))
}
