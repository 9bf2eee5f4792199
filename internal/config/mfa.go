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

// FailureMode defines what happens if a multifactor provider is not available.
type FailureMode int

const (
	FailureModeUndefined FailureMode = iota
	// FailureModeClosed denies the authentication attempt.
	FailureModeClosed
	// FailureModeOpen continues without multifactor authentication.
	FailureModeOpen
	// FailureModePhantom continues as if the challenge had been bypassed.
	FailureModePhantom
)

func (m FailureMode) String() string {
	switch m {
	case FailureModeClosed:
		return "closed"
	case FailureModeOpen:
		return "open"
	case FailureModePhantom:
		return "phantom"
	default:
		return ""
	}
}

type MFAConfig struct {
	AuthenticationContextAttribute string           `koanf:"authentication_context_attribute" validate:"required"`
	GlobalFailureMode              FailureMode      `koanf:"global_failure_mode,string"`
	Triggers                       TriggerConfig    `koanf:"triggers"`
	Providers                      []ProviderConfig `koanf:"providers"                        validate:"dive"`
}

type TriggerConfig struct {
	GlobalProviderID   string                     `koanf:"global_provider_id"`
	PrincipalAttribute *PrincipalAttributeTrigger `koanf:"principal_attribute"`
}

type PrincipalAttributeTrigger struct {
	Name         string `koanf:"name"          validate:"required"`
	ValuePattern string `koanf:"value_pattern"`
}

type ProviderConfig struct {
	ID          string      `koanf:"id"                  validate:"required,startswith=mfa-"`
	Rank        int         `koanf:"rank"`
	FailureMode FailureMode `koanf:"failure_mode,string"`
	Handler     string      `koanf:"handler"             validate:"required"`
	Bypass      []Backend   `koanf:"bypass"              validate:"dive"`
}

// EffectiveFailureMode returns the provider specific failure mode if set, the global one otherwise.
func (c *MFAConfig) EffectiveFailureMode(provider ProviderConfig) FailureMode {
	if provider.FailureMode != FailureModeUndefined {
		return provider.FailureMode
	}

	if c.GlobalFailureMode != FailureModeUndefined {
		return c.GlobalFailureMode
	}

	return FailureModeClosed
}
