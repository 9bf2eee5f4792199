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

package config

import (
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/x"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// nolint: cyclop
func logLevelDecodeHookFunc(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(zerolog.Level(0)) {
		return data, nil
	}

	switch data {
	case "panic":
		return zerolog.PanicLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, nil
	}
}

func logFormatDecodeHookFunc(from reflect.Type, to reflect.Type, val any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(LogTextFormat) {
		return x.IfThenElse(val == "gelf", LogGelfFormat, LogTextFormat), nil
	}

	return val, nil
}

func failureModeDecodeHookFunc(from reflect.Type, to reflect.Type, val any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(FailureModeUndefined) {
		return val, nil
	}

	// nolint: forcetypeassert
	switch strings.ToLower(strings.TrimSpace(val.(string))) {
	case "":
		return FailureModeUndefined, nil
	case "closed":
		return FailureModeClosed, nil
	case "open":
		return FailureModeOpen, nil
	case "phantom":
		return FailureModePhantom, nil
	default:
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"unsupported failure mode '%s'", val)
	}
}

func reminderOptionDecodeHookFunc(from reflect.Type, to reflect.Type, val any) (any, error) {
	if to != reflect.TypeOf(consent.Always) || from == to {
		return val, nil
	}

	// nolint: exhaustive
	switch from.Kind() {
	case reflect.String:
		// nolint: forcetypeassert
		return consent.LookupByName(val.(string))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return consent.LookupByCode(int(reflect.ValueOf(val).Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return consent.LookupByCode(int(reflect.ValueOf(val).Uint())) // nolint: gosec
	case reflect.Float64:
		// yaml and json numbers may arrive as floats
		// nolint: forcetypeassert
		return consent.LookupByCode(int(val.(float64)))
	default:
		return val, nil
	}
}
