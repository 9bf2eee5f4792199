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

package parser

import (
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
	"github.com/dadrus/bifrost/internal/x/stringx"
)

const escapedUnderscore = "\x00"

// toRealType lets the yaml parser guess the type of the given value.
func toRealType(val string) any {
	var parsed map[string]any

	yaml.Unmarshal(stringx.ToBytes("val: "+val), &parsed) // nolint: errcheck

	return parsed["val"]
}

// envKeyToPath maps e.g. "AUTHENTICATION_HANDLERS_0_ID" to "authentication.handlers.0.id"
// and "WEBFLOW_EXECUTIONS_MAX__TRANSITIONS" to "webflow.executions.max_transitions".
func envKeyToPath(prefix, key string) string {
	tmp := strings.ToLower(strings.TrimPrefix(key, prefix))
	tmp = strings.ReplaceAll(tmp, "__", escapedUnderscore)
	tmp = strings.ReplaceAll(tmp, "_", ".")

	return strings.ReplaceAll(tmp, escapedUnderscore, "_")
}

// indexedToSlices turns maps having only numeric keys into slices, recursively.
func indexedToSlices(val any) any {
	values, ok := val.(map[string]any)
	if !ok {
		return val
	}

	maxIdx := -1

	for key, entry := range values {
		values[key] = indexedToSlices(entry)

		if maxIdx == -2 { // nolint: mnd
			continue
		}

		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			maxIdx = -2

			continue
		}

		maxIdx = max(maxIdx, idx)
	}

	if maxIdx < 0 {
		return values
	}

	slice := make([]any, maxIdx+1)
	for key, entry := range values {
		idx, _ := strconv.Atoi(key)
		slice[idx] = entry
	}

	return slice
}

func koanfFromEnv(prefix string) (*koanf.Koanf, error) {
	raw := koanf.New(".")

	provider := env.Provider(".", env.Opt{
		Prefix: prefix,
		TransformFunc: func(key, val string) (string, any) {
			return envKeyToPath(prefix, key), toRealType(val)
		},
	})

	if err := raw.Load(provider, nil); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"failed to parse environment variables to config").CausedBy(err)
	}

	normalized, _ := indexedToSlices(raw.Raw()).(map[string]any)

	parser := koanf.New(".")
	if err := parser.Load(confmap.Provider(normalized, ""), nil); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"failed to normalize environment variables").CausedBy(err)
	}

	return parser, nil
}
