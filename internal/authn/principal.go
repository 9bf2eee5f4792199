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

package authn

import (
	"maps"
	"slices"
)

type Principal struct {
	ID         string           `json:"id"`
	Attributes map[string][]any `json:"attributes,omitempty"`
}

func NewPrincipal(id string, attributes map[string][]any) *Principal {
	return &Principal{ID: id, Attributes: cloneAttributes(attributes)}
}

func (p *Principal) Attribute(name string) ([]any, bool) {
	if p == nil {
		return nil, false
	}

	values, ok := p.Attributes[name]

	return values, ok && len(values) != 0
}

func cloneAttributes(attributes map[string][]any) map[string][]any {
	if attributes == nil {
		return nil
	}

	cloned := make(map[string][]any, len(attributes))
	for name, values := range maps.All(attributes) {
		cloned[name] = slices.Clone(values)
	}

	return cloned
}
