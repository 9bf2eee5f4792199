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

package flow

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dadrus/bifrost/cmd/validate"
	"github.com/dadrus/bifrost/internal/flow"
)

const (
	flowFlag   = "flow"
	outputFlag = "output"
)

var ErrUnknownFlow = errors.New("unknown flow")

type outputFormat string

const (
	outputYAML outputFormat = "yaml"
	outputJSON outputFormat = "json"
)

var _ pflag.Value = (*outputFormat)(nil)

func (o *outputFormat) String() string { return string(*o) }
func (o *outputFormat) Type() string   { return "format" }

func (o *outputFormat) Set(value string) error {
	format := outputFormat(strings.ToLower(value))
	if format != outputYAML && format != outputJSON {
		return fmt.Errorf("unsupported output format '%s', expected yaml or json", value) // nolint: err113
	}

	*o = format

	return nil
}

// NewDescribeCommand represents the "flow describe" command.
func NewDescribeCommand() *cobra.Command {
	format := outputYAML

	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Prints the states and transitions of the webflows assembled from the configuration",
		Example: "bifrost flow describe -c myconfig.yaml --flow login --output json",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := describe(cmd); err != nil {
				cmd.PrintErrf("%v\n", err)

				os.Exit(1)
			}
		},
	}

	cmd.Flags().String(flowFlag, "", "Id of the flow to describe (login or logout). All flows are described if not set.")
	cmd.Flags().VarP(&format, outputFlag, "o", "Output format (yaml or json)")

	return cmd
}

func describe(cmd *cobra.Command) error {
	format := outputFormat(cmd.Flags().Lookup(outputFlag).Value.String())

	application, err := validate.LoadApp(cmd)
	if err != nil {
		return err
	}

	flowID, _ := cmd.Flags().GetString(flowFlag)

	var descriptions []flow.Description

	for _, graph := range application.Flows().Graphs {
		if len(flowID) == 0 || graph.ID() == flowID {
			descriptions = append(descriptions, graph.Describe())
		}
	}

	if len(descriptions) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}

	slices.SortFunc(descriptions, func(a, b flow.Description) int { return strings.Compare(a.ID, b.ID) })

	var out []byte

	if format == outputJSON {
		out, err = json.MarshalIndent(descriptions, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(descriptions)
	}

	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}
