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

package consent

import (
	"strings"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

// ReminderOption controls when a previously given consent has to be confirmed again.
// The numeric values are stable codes and must never change.
type ReminderOption int

const (
	// Always asks for consent on every login.
	Always ReminderOption = 0
	// AttributeName asks again if the set of released attribute names changed.
	AttributeName ReminderOption = 1
	// AttributeValue asks again if released attribute names or their values changed.
	AttributeValue ReminderOption = 2
)

func ReminderOptions() []ReminderOption { return []ReminderOption{Always, AttributeName, AttributeValue} }

func (o ReminderOption) Code() int { return int(o) }

func (o ReminderOption) String() string {
	switch o {
	case Always:
		return "ALWAYS"
	case AttributeName:
		return "ATTRIBUTE_NAME"
	case AttributeValue:
		return "ATTRIBUTE_VALUE"
	default:
		return "UNKNOWN"
	}
}

func LookupByCode(code int) (ReminderOption, error) {
	for _, option := range ReminderOptions() {
		if option.Code() == code {
			return option, nil
		}
	}

	return 0, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"unknown consent reminder option code %d", code)
}

func LookupByName(name string) (ReminderOption, error) {
	for _, option := range ReminderOptions() {
		if strings.EqualFold(option.String(), strings.TrimSpace(name)) {
			return option, nil
		}
	}

	return 0, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
		"unknown consent reminder option '%s'", name)
}
