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

package aup

import (
	"context"

	"github.com/dadrus/bifrost/internal/authn"
)

// Repository keeps track of whether principals accepted the acceptable usage policy.
// Implementations never fail. Any backend error results in false.
type Repository interface {
	IsAccepted(ctx context.Context, principal *authn.Principal) bool
	Submit(ctx context.Context, principal *authn.Principal) bool
}
