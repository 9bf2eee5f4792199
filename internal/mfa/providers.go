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
	"cmp"
	"slices"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/mfa/bypass"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type Option func(p *Providers)

func WithDecisionObserver(observer DecisionObserver) Option {
	return func(p *Providers) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// Providers holds the configured multifactor providers ordered by rank, highest first.
type Providers struct {
	providers []*Provider
	observer  DecisionObserver
}

func NewProviders(conf config.MFAConfig, handlers HandlerLookup, opts ...Option) (*Providers, error) {
	result := &Providers{observer: noopObserver{}}

	for _, opt := range opts {
		opt(result)
	}

	for _, pc := range conf.Providers {
		if _, present := result.Get(pc.ID); present {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"multifactor provider '%s' is defined multiple times", pc.ID)
		}

		evaluator, err := bypass.NewFromConfig(pc.Bypass)
		if err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed creating bypass rules of multifactor provider '%s'", pc.ID).CausedBy(err)
		}

		result.providers = append(result.providers, &Provider{
			id:          pc.ID,
			rank:        pc.Rank,
			failureMode: conf.EffectiveFailureMode(pc),
			handler:     pc.Handler,
			bypass:      evaluator,
			handlers:    handlers,
			observer:    result.observer,
		})
	}

	slices.SortStableFunc(result.providers, func(a, b *Provider) int { return cmp.Compare(b.rank, a.rank) })

	return result, nil
}

func (p *Providers) Get(id string) (*Provider, bool) {
	idx := slices.IndexFunc(p.providers, func(provider *Provider) bool { return provider.id == id })
	if idx < 0 {
		return nil, false
	}

	return p.providers[idx], true
}

// All returns the providers ordered by rank.
func (p *Providers) All() []*Provider { return slices.Clone(p.providers) }

func (p *Providers) Len() int { return len(p.providers) }
