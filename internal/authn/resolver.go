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
	"slices"
)

// Resolver selects the handlers to execute for a credential out of the registered ones.
// Implementations must not modify the given handlers slice.
type Resolver interface {
	Applies(cred Credential) bool
	Resolve(handlers []Handler, cred Credential) []Handler
}

type defaultResolver struct{}

func (defaultResolver) Applies(Credential) bool { return true }

func (defaultResolver) Resolve(handlers []Handler, cred Credential) []Handler {
	var result []Handler

	for _, handler := range handlers {
		if handler.Supports(cred) {
			result = append(result, handler)
		}
	}

	return result
}

type byCredentialTypeResolver struct {
	variants []Variant
}

// ByCredentialType narrows the candidates to the handlers declaring the exact variant of the
// credential. If variants are given, the resolver applies to credentials of these variants only.
func ByCredentialType(variants ...Variant) Resolver {
	return &byCredentialTypeResolver{variants: variants}
}

func (r *byCredentialTypeResolver) Applies(cred Credential) bool {
	return len(r.variants) == 0 || slices.Contains(r.variants, cred.Variant())
}

func (r *byCredentialTypeResolver) Resolve(handlers []Handler, cred Credential) []Handler {
	var result []Handler

	for _, handler := range handlers {
		if slices.Contains(handler.Variants(), cred.Variant()) && handler.Supports(cred) {
			result = append(result, handler)
		}
	}

	return result
}

type byNameResolver struct {
	names    []string
	variants []Variant
}

// ByName selects the handlers with the given names. If variants are given, the resolver applies
// to credentials of these variants only.
func ByName(names []string, variants ...Variant) Resolver {
	return &byNameResolver{names: names, variants: variants}
}

func (r *byNameResolver) Applies(cred Credential) bool {
	return len(r.variants) == 0 || slices.Contains(r.variants, cred.Variant())
}

func (r *byNameResolver) Resolve(handlers []Handler, cred Credential) []Handler {
	var result []Handler

	for _, handler := range handlers {
		if slices.Contains(r.names, handler.Name()) && handler.Supports(cred) {
			result = append(result, handler)
		}
	}

	return result
}
