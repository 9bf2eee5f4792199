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
	"time"

	"github.com/dadrus/bifrost/internal/consent"
)

type WebflowConfig struct {
	X509       X509FlowConfig   `koanf:"x509"`
	AUP        AUPConfig        `koanf:"aup"`
	Consent    ConsentConfig    `koanf:"consent"`
	Executions ExecutionsConfig `koanf:"executions"`
}

type X509FlowConfig struct {
	Enabled bool `koanf:"enabled"`
}

type AUPConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Attribute  string  `koanf:"attribute"  validate:"required"`
	Repository Backend `koanf:"repository"`
}

type ConsentConfig struct {
	Enabled       bool                   `koanf:"enabled"`
	Reminder      time.Duration          `koanf:"reminder"`
	DefaultOption consent.ReminderOption `koanf:"default_option,string"`
}

type ExecutionsConfig struct {
	TTL            time.Duration `koanf:"ttl"             validate:"gt=0"`
	MaxTransitions int           `koanf:"max_transitions" validate:"gt=0"`
	Store          Backend       `koanf:"store"`
}
