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

package flow

import (
	"errors"
	"net/http"

	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	CodeAuthenticationFailure = "authenticationFailure"
	CodeFailure               = "failure"
)

type Status int

const (
	// StatusSuspended means the execution waits in a view state for input.
	StatusSuspended Status = iota + 1
	// StatusCompleted means the execution reached an end state.
	StatusCompleted
	// StatusFailed means the execution has been aborted by a fatal condition.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuspended:
		return "suspended"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what an execution step returns to the caller. It never carries error details,
// only public codes.
type Result struct {
	ExecutionID     string
	FlowID          string
	Status          Status
	StateID         string
	View            string
	EndResult       string
	ErrorCode       string
	Authentication  *authn.Authentication
	Attributes      map[string]any
	ResponseHeaders http.Header
}

// PublicCode returns the code of the error kind, which is safe to show to end users.
func PublicCode(err error) string {
	if err == nil {
		return ""
	}

	var chain *errorchain.ErrorChain
	if errors.As(err, &chain) && chain.Kind() != nil {
		return chain.Code()
	}

	return errorchain.New(bifrost.ErrInternal).Code()
}
