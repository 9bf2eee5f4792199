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

// Configurer contributes handlers, resolvers or populators to the authentication plan.
type Configurer interface {
	ConfigurePlan(registry *Registry) error
}

type ConfigurerFunc func(registry *Registry) error

func (f ConfigurerFunc) ConfigurePlan(registry *Registry) error { return f(registry) }

// NewRegistryFrom creates a registry and applies the given configurers in order.
func NewRegistryFrom(configurers ...Configurer) (*Registry, error) {
	registry := NewRegistry()

	for _, configurer := range configurers {
		if err := configurer.ConfigurePlan(registry); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
