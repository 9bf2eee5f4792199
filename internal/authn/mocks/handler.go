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

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dadrus/bifrost/internal/authn"
)

type HandlerMock struct {
	mock.Mock
}

func (m *HandlerMock) Name() string {
	args := m.Called()

	return args.String(0)
}

func (m *HandlerMock) Variants() []authn.Variant {
	args := m.Called()

	// nolint: forcetypeassert
	return args.Get(0).([]authn.Variant)
}

func (m *HandlerMock) Supports(cred authn.Credential) bool {
	args := m.Called(cred)

	return args.Bool(0)
}

func (m *HandlerMock) Authenticate(ctx context.Context, cred authn.Credential) (*authn.Principal, error) {
	args := m.Called(ctx, cred)

	if val := args.Get(0); val != nil {
		// nolint: forcetypeassert
		return val.(*authn.Principal), nil
	}

	return nil, args.Error(1)
}

// NewHandlerMock creates a handler mock answering the name, variant and support queries.
func NewHandlerMock(name string, supports bool, variants ...authn.Variant) *HandlerMock {
	handler := &HandlerMock{}
	handler.On("Name").Return(name).Maybe()
	handler.On("Variants").Return(variants).Maybe()
	handler.On("Supports", mock.Anything).Return(supports).Maybe()

	return handler
}
