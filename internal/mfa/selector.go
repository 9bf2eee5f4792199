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

import (
	"fmt"
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type attributeTrigger struct {
	name    string
	pattern *regexp2.Regexp
}

// Selector determines which provider, if any, has to be used for an authentication.
type Selector struct {
	providers *Providers
	global    string
	trigger   *attributeTrigger
}

func NewSelector(conf config.TriggerConfig, providers *Providers) (*Selector, error) {
	selector := &Selector{providers: providers, global: conf.GlobalProviderID}

	if len(conf.GlobalProviderID) != 0 {
		if _, ok := providers.Get(conf.GlobalProviderID); !ok {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"global multifactor provider '%s' is not configured", conf.GlobalProviderID)
		}
	}

	if conf.PrincipalAttribute != nil {
		trigger := &attributeTrigger{name: conf.PrincipalAttribute.Name}

		if len(conf.PrincipalAttribute.ValuePattern) != 0 {
			re, err := regexp2.Compile(conf.PrincipalAttribute.ValuePattern, regexp2.RE2)
			if err != nil {
				return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
					"invalid value pattern of the principal attribute trigger").CausedBy(err)
			}

			trigger.pattern = re
		}

		selector.trigger = trigger
	}

	return selector, nil
}

// Select returns the highest ranked provider the authentication is eligible for. A global
// provider wins. Otherwise the principal attribute trigger is consulted: values naming a
// provider select that provider, any other matching value selects the highest ranked one.
func (s *Selector) Select(auth *authn.Authentication) (*Provider, bool) {
	if len(s.global) != 0 {
		return s.providers.Get(s.global)
	}

	if s.trigger == nil || auth == nil {
		return nil, false
	}

	values, _ := auth.Principal.Attribute(s.trigger.name)

	var matched []string

	for _, value := range values {
		str := fmt.Sprint(value)

		if s.trigger.pattern != nil {
			if ok, err := s.trigger.pattern.MatchString(str); err != nil || !ok {
				continue
			}
		}

		matched = append(matched, str)
	}

	if len(matched) == 0 {
		return nil, false
	}

	all := s.providers.All()

	for _, provider := range all {
		if slices.Contains(matched, provider.id) {
			return provider, true
		}
	}

	if len(all) == 0 {
		return nil, false
	}

	return all[0], true
}

// Candidates returns every provider in rank order. Used to build the flow transitions.
func (s *Selector) Candidates() []*Provider { return s.providers.All() }
