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
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Decision struct {
	Principal       string         `json:"principal"`
	Service         string         `json:"service"`
	Option          ReminderOption `json:"option"`
	Reminder        time.Duration  `json:"reminder"`
	CreatedAt       time.Time      `json:"created_at"`
	AttributeNames  string         `json:"attribute_names"`
	AttributeValues string         `json:"attribute_values"`
}

func NewDecision(
	principal, service string,
	option ReminderOption,
	reminder time.Duration,
	attributes map[string][]any,
	now time.Time,
) *Decision {
	return &Decision{
		Principal:       principal,
		Service:         service,
		Option:          option,
		Reminder:        reminder,
		CreatedAt:       now,
		AttributeNames:  hashNames(attributes),
		AttributeValues: hashValues(attributes),
	}
}

// IsRequired tells whether consent has to be asked for given the released attributes.
func IsRequired(decision *Decision, attributes map[string][]any, now time.Time) bool {
	if decision == nil {
		return true
	}

	if decision.Reminder > 0 && now.After(decision.CreatedAt.Add(decision.Reminder)) {
		return true
	}

	switch decision.Option {
	case AttributeName:
		return decision.AttributeNames != hashNames(attributes)
	case AttributeValue:
		return decision.AttributeNames != hashNames(attributes) ||
			decision.AttributeValues != hashValues(attributes)
	default:
		return true
	}
}

func sortedNames(attributes map[string][]any) []string {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func hashNames(attributes map[string][]any) string {
	return digest(strings.Join(sortedNames(attributes), "|"))
}

func hashValues(attributes map[string][]any) string {
	var builder strings.Builder

	for _, name := range sortedNames(attributes) {
		values := make([]string, 0, len(attributes[name]))
		for _, value := range attributes[name] {
			values = append(values, fmt.Sprint(value))
		}

		slices.Sort(values)

		builder.WriteString(name)
		builder.WriteString("=")
		builder.WriteString(strings.Join(values, ","))
		builder.WriteString("|")
	}

	return digest(builder.String())
}

func digest(value string) string {
	sum := sha512.Sum512([]byte(value))

	return hex.EncodeToString(sum[:])
}
