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

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// valueMatcher matches any of the given values. Without a pattern
// presence of at least one value is enough.
type valueMatcher struct {
	pattern *regexp2.Regexp
}

func newValueMatcher(pattern string) (valueMatcher, error) {
	if len(pattern) == 0 {
		return valueMatcher{}, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		return valueMatcher{}, err
	}

	return valueMatcher{pattern: re}, nil
}

func (m valueMatcher) match(values []any) bool {
	if len(values) == 0 {
		return false
	}

	if m.pattern == nil {
		return true
	}

	for _, value := range values {
		if matched, err := m.pattern.MatchString(fmt.Sprint(value)); err == nil && matched {
			return true
		}
	}

	return false
}

type principalAttribute struct {
	name    string
	matcher valueMatcher
}

// PrincipalAttribute bypasses if the principal carries the attribute with a value matching the pattern.
func PrincipalAttribute(name, pattern string) (Evaluator, error) {
	matcher, err := newValueMatcher(pattern)
	if err != nil {
		return nil, err
	}

	return &principalAttribute{name: name, matcher: matcher}, nil
}

func (e *principalAttribute) Evaluate(_ string, in Input) bool {
	values, _ := in.principal().Attribute(e.name)

	return e.matcher.match(values)
}

type authenticationAttribute struct {
	name    string
	matcher valueMatcher
}

// AuthenticationAttribute bypasses if the authentication carries the attribute with a value matching the pattern.
func AuthenticationAttribute(name, pattern string) (Evaluator, error) {
	matcher, err := newValueMatcher(pattern)
	if err != nil {
		return nil, err
	}

	return &authenticationAttribute{name: name, matcher: matcher}, nil
}

func (e *authenticationAttribute) Evaluate(_ string, in Input) bool {
	values, _ := in.Authentication.Attribute(e.name)

	return e.matcher.match(values)
}
