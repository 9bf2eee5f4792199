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
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config/parser"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/validation"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type (
	ConfigurationPath string
	EnvVarPrefix      string
)

type Configuration struct {
	Log            LoggingConfig        `koanf:"log"`
	Authentication AuthenticationConfig `koanf:"authentication"`
	MFA            MFAConfig            `koanf:"mfa"`
	Webflow        WebflowConfig        `koanf:"webflow"`
	Metrics        MetricsConfig        `koanf:"metrics"`
	Tracing        TracingConfig        `koanf:"tracing"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type SpanProcessorType string

const (
	SpanProcessorSimple SpanProcessorType = "simple"
	SpanProcessorBatch  SpanProcessorType = "batch"
)

// TracingConfig enables OpenTelemetry tracing. Exporters are configured via the
// standard OTEL_* environment variables.
type TracingConfig struct {
	Enabled       bool              `koanf:"enabled"`
	SpanProcessor SpanProcessorType `koanf:"span_processor" validate:"omitempty,oneof=simple batch"`
}

// Backend references a pluggable implementation by its type together with
// its implementation specific configuration.
type Backend struct {
	Type   string         `koanf:"type"   mapstructure:"type"   validate:"required"`
	Config map[string]any `koanf:"config" mapstructure:"config"`
}

func defaultConfig() Configuration {
	return Configuration{
		Log: LoggingConfig{
			Format: LogTextFormat,
			Level:  zerolog.ErrorLevel,
		},
		MFA: MFAConfig{
			AuthenticationContextAttribute: "authnContext",
			GlobalFailureMode:              FailureModeClosed,
		},
		Webflow: WebflowConfig{
			AUP: AUPConfig{
				Attribute:  "accepted",
				Repository: Backend{Type: "memory"},
			},
			Consent: ConsentConfig{
				Reminder:      30 * 24 * time.Hour, // nolint: mnd
				DefaultOption: consent.AttributeName,
			},
			Executions: ExecutionsConfig{
				TTL:            10 * time.Minute, // nolint: mnd
				MaxTransitions: 100,              // nolint: mnd
				Store:          Backend{Type: "memory"},
			},
		},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{SpanProcessor: SpanProcessorBatch},
	}
}

func NewConfiguration(envPrefix EnvVarPrefix, configFile ConfigurationPath) (*Configuration, error) {
	result := defaultConfig()

	err := parser.New(
		parser.WithDecodeHookFunc(logLevelDecodeHookFunc),
		parser.WithDecodeHookFunc(logFormatDecodeHookFunc),
		parser.WithDecodeHookFunc(failureModeDecodeHookFunc),
		parser.WithDecodeHookFunc(reminderOptionDecodeHookFunc),
		parser.WithConfigFile(string(configFile)),
		parser.WithEnvPrefix(string(envPrefix)),
		parser.WithConfigValidator(validateConfigFile),
	).Load(&result)
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"failed to load configuration").CausedBy(err)
	}

	if err = validation.ValidateStruct(result); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"configuration is invalid").CausedBy(err)
	}

	return &result, nil
}

func validateConfigFile(configPath string) error {
	file, err := os.Open(configPath)
	if err != nil {
		return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed to read %s", configPath).CausedBy(err)
	}

	defer file.Close()

	return ValidateConfigSchema(file)
}
