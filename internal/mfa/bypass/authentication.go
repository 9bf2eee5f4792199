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
	"slices"
	"time"

	"github.com/dadrus/bifrost/internal/authn"
)

type authenticationHandler []string

// AuthenticationHandler bypasses if one of the named handlers succeeded earlier.
func AuthenticationHandler(names ...string) Evaluator { return authenticationHandler(names) }

func (e authenticationHandler) Evaluate(_ string, in Input) bool {
	return slices.ContainsFunc(e, in.Authentication.HasSuccessfulHandler)
}

type credentialType []authn.Variant

// CredentialType bypasses if a credential of one of the given variants was presented.
func CredentialType(variants ...authn.Variant) Evaluator { return credentialType(variants) }

func (e credentialType) Evaluate(_ string, in Input) bool {
	return slices.ContainsFunc(e, in.Authentication.HasCredentialVariant)
}

type recentAuthentication struct {
	maxAge time.Duration
}

// RecentAuthentication bypasses if the authentication happened no longer than maxAge ago.
func RecentAuthentication(maxAge time.Duration) Evaluator {
	return &recentAuthentication{maxAge: maxAge}
}

func (e *recentAuthentication) Evaluate(_ string, in Input) bool {
	if in.Authentication == nil || in.Authentication.AuthenticatedAt.IsZero() || in.Now.IsZero() {
		return false
	}

	age := in.Now.Sub(in.Authentication.AuthenticatedAt)

	return age >= 0 && age <= e.maxAge
}
