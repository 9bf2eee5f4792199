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
	"github.com/dadrus/bifrost/internal/authn"
)

const (
	AttributeBypass             = "bypassMultifactorAuthentication"
	AttributeBypassedProviderID = "bypassedMultifactorAuthenticationProviderId"
	AttributeUnavailable        = "mfaProviderUnavailable"
	AttributePhantomProviderID  = "phantomMultifactorAuthenticationProviderId"
)

// Record adds the attributes describing the decision to the authentication. A bypass and a
// phantom decision claim the authentication context of the provider. Only a bypass marks the
// authentication as bypassed, a phantom decision is recorded as an outage.
func Record(builder *authn.AuthenticationBuilder, provider *Provider, decision Decision, contextAttribute string) {
	// nolint: exhaustive
	switch decision {
	case DecisionBypass:
		builder.AddAttribute(AttributeBypass, true)
		builder.AddAttribute(AttributeBypassedProviderID, provider.id)
		builder.AddAttribute(contextAttribute, provider.id)
	case DecisionProceed:
		builder.AddAttribute(AttributeUnavailable, provider.id)
	case DecisionPhantom:
		builder.AddAttribute(AttributeUnavailable, provider.id)
		builder.AddAttribute(AttributePhantomProviderID, provider.id)
		builder.AddAttribute(contextAttribute, provider.id)
	}
}
