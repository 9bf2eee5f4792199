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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const namespace = "bifrost"

// NewRegistry creates a registry carrying the go runtime and process collectors.
func NewRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector(collectors.WithGoCollections(collectors.GoRuntimeMetricsCollection)))

	return reg, reg
}

// Metrics counts flow transitions, authentication attempts and multifactor decisions. It
// observes the flow executor, the authentication manager and the multifactor providers.
type Metrics struct {
	transitions *prometheus.CounterVec
	attempts    *prometheus.CounterVec
	decisions   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_transitions_total",
			Help:      "Number of transitions taken by flow executions",
		}, []string{"flow", "state", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentication_attempts_total",
			Help:      "Number of credential validations by authentication handler",
		}, []string{"handler", "result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mfa_decisions_total",
			Help:      "Number of multifactor decisions by provider",
		}, []string{"provider", "decision"}),
	}

	for _, collector := range []prometheus.Collector{m.transitions, m.attempts, m.decisions} {
		if err := reg.Register(collector); err != nil {
			return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration, "failed registering metrics").
				CausedBy(err)
		}
	}

	return m, nil
}

func (m *Metrics) ObserveTransition(flowID, stateID string, outcome flow.Outcome) {
	m.transitions.WithLabelValues(flowID, stateID, string(outcome)).Inc()
}

func (m *Metrics) ObserveAuthenticationAttempt(handler string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}

	m.attempts.WithLabelValues(handler, result).Inc()
}

func (m *Metrics) ObserveMFADecision(provider string, decision mfa.Decision) {
	m.decisions.WithLabelValues(provider, decision.String()).Inc()
}
