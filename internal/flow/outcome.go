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
	"slices"
	"strings"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// Outcome labels the result of an action or the event submitted to a view. The set is
// closed, apart from the multifactor routing outcomes, which carry the provider id.
type Outcome string

const (
	OutcomeSuccess               Outcome = "success"
	OutcomeError                 Outcome = "error"
	OutcomeWarn                  Outcome = "warn"
	OutcomeAuthenticationFailure Outcome = "authenticationFailure"
	OutcomeBypass                Outcome = "bypass"
	OutcomeUnavailable           Outcome = "unavailable"
	OutcomeSubmit                Outcome = "submit"
	OutcomeCancel                Outcome = "cancel"
	OutcomeProceed               Outcome = "proceed"
	OutcomeMustAccept            Outcome = "mustAccept"

	multifactorOutcomePrefix = "mfa-"
)

func Outcomes() []Outcome {
	return []Outcome{
		OutcomeSuccess, OutcomeError, OutcomeWarn, OutcomeAuthenticationFailure, OutcomeBypass,
		OutcomeUnavailable, OutcomeSubmit, OutcomeCancel, OutcomeProceed, OutcomeMustAccept,
	}
}

// MultifactorOutcome returns the outcome routing to the given multifactor provider.
func MultifactorOutcome(providerID string) Outcome {
	if strings.HasPrefix(providerID, multifactorOutcomePrefix) {
		return Outcome(providerID)
	}

	return Outcome(multifactorOutcomePrefix + providerID)
}

func (o Outcome) IsMultifactor() bool {
	return len(o) > len(multifactorOutcomePrefix) && strings.HasPrefix(string(o), multifactorOutcomePrefix)
}

func (o Outcome) Valid() bool { return o.IsMultifactor() || slices.Contains(Outcomes(), o) }

func ParseOutcome(value string) (Outcome, error) {
	outcome := Outcome(value)
	if !outcome.Valid() {
		return "", errorchain.NewWithMessagef(bifrost.ErrConfiguration, "unknown outcome '%s'", value)
	}

	return outcome, nil
}
