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

package mfa

// Decision is the result of asking a provider whether its challenge must run.
type Decision int

const (
	// DecisionChallenge requires the challenge.
	DecisionChallenge Decision = iota
	// DecisionBypass skips the challenge and claims the authentication context.
	DecisionBypass
	// DecisionProceed skips the challenge without claiming anything.
	DecisionProceed
	// DecisionDeny aborts the authentication attempt.
	DecisionDeny
	// DecisionPhantom skips the challenge of an unavailable provider and claims the
	// authentication context anyway.
	DecisionPhantom
)

func (d Decision) String() string {
	switch d {
	case DecisionChallenge:
		return "challenge"
	case DecisionBypass:
		return "bypass"
	case DecisionProceed:
		return "proceed"
	case DecisionDeny:
		return "deny"
	case DecisionPhantom:
		return "phantom"
	default:
		return "unknown"
	}
}
