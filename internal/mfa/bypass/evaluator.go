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

package bypass

// Evaluator decides whether the challenge of the given provider can be skipped.
// Implementations never fail. Missing data results in false.
type Evaluator interface {
	Evaluate(providerID string, in Input) bool
}

type EvaluatorFunc func(providerID string, in Input) bool

func (f EvaluatorFunc) Evaluate(providerID string, in Input) bool { return f(providerID, in) }

type never struct{}

func Never() Evaluator { return never{} }

func (never) Evaluate(string, Input) bool { return false }

type composite []Evaluator

// Composite bypasses as soon as one of the given evaluators does.
func Composite(evaluators ...Evaluator) Evaluator {
	switch len(evaluators) {
	case 0:
		return never{}
	case 1:
		return evaluators[0]
	default:
		return composite(evaluators)
	}
}

func (c composite) Evaluate(providerID string, in Input) bool {
	for _, evaluator := range c {
		if evaluator.Evaluate(providerID, in) {
			return true
		}
	}

	return false
}
