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
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/dadrus/bifrost/internal/authn"
)

type Request struct {
	RemoteAddr string
	Headers    http.Header
}

// Input is what the caller supplies when starting or resuming an execution.
type Input struct {
	Credential      authn.Credential
	Form            map[string]string
	Request         Request
	ResponseHeaders http.Header
}

// RequestContext is the per execution state handed to actions. It is owned by exactly
// one execution and never shared.
type RequestContext struct {
	ctx            context.Context // nolint: containedctx
	flowID         string
	executionID    string
	stateID        string
	now            time.Time
	input          Input
	attributes     map[string]any
	authentication *authn.Authentication
	credential     authn.Credential
	err            error
}

func newRequestContext(ctx context.Context, cursor *Cursor, in Input, now time.Time) *RequestContext {
	if in.ResponseHeaders == nil {
		in.ResponseHeaders = make(http.Header)
	}

	if in.Form == nil {
		in.Form = make(map[string]string)
	}

	attributes := maps.Clone(cursor.Attributes)
	if attributes == nil {
		attributes = make(map[string]any)
	}

	return &RequestContext{
		ctx:            ctx,
		flowID:         cursor.FlowID,
		executionID:    cursor.ExecutionID,
		stateID:        cursor.StateID,
		now:            now,
		input:          in,
		attributes:     attributes,
		authentication: cursor.Authentication,
		credential:     in.Credential,
	}
}

// NewRequestContext creates a context outside of an execution, e.g. to test actions.
func NewRequestContext(ctx context.Context, flowID string, in Input) *RequestContext {
	return newRequestContext(ctx, &Cursor{FlowID: flowID}, in, time.Now())
}

func (rc *RequestContext) Context() context.Context { return rc.ctx }
func (rc *RequestContext) FlowID() string           { return rc.flowID }
func (rc *RequestContext) ExecutionID() string      { return rc.executionID }
func (rc *RequestContext) StateID() string          { return rc.stateID }
func (rc *RequestContext) Now() time.Time           { return rc.now }
func (rc *RequestContext) Request() Request         { return rc.input.Request }

// ResponseHeaders returns the headers to be sent with the response rendering the result.
func (rc *RequestContext) ResponseHeaders() http.Header { return rc.input.ResponseHeaders }

func (rc *RequestContext) FormValue(name string) string { return rc.input.Form[name] }

// Credential returns the credential collected for the current step. It is never persisted.
func (rc *RequestContext) Credential() authn.Credential { return rc.credential }

func (rc *RequestContext) SetCredential(cred authn.Credential) { rc.credential = cred }

func (rc *RequestContext) ClearCredential() { rc.credential = nil }

func (rc *RequestContext) Authentication() *authn.Authentication { return rc.authentication }

func (rc *RequestContext) SetAuthentication(auth *authn.Authentication) { rc.authentication = auth }

func (rc *RequestContext) Attribute(name string) (any, bool) {
	value, ok := rc.attributes[name]

	return value, ok
}

func (rc *RequestContext) StringAttribute(name string) string {
	value, _ := rc.attributes[name].(string)

	return value
}

func (rc *RequestContext) SetAttribute(name string, value any) { rc.attributes[name] = value }

func (rc *RequestContext) DeleteAttribute(name string) { delete(rc.attributes, name) }

// Error returns the error of the last action failed while handling the current request,
// if any. It is shown by the next view.
func (rc *RequestContext) Error() error { return rc.err }

func (rc *RequestContext) withState(ctx context.Context, stateID string) {
	rc.ctx = ctx
	rc.stateID = stateID
}
