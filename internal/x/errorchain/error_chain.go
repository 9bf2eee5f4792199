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

package errorchain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
)

type link struct {
	err error
	msg string
}

func (l link) String() string {
	if len(l.msg) == 0 {
		return l.err.Error()
	}

	return l.err.Error() + ": " + l.msg
}

// publicError is what leaves the process. It carries the kind of the failure only,
// messages and causes stay in the logs.
type publicError struct {
	Code string `json:"code"`
}

// ErrorChain is an error of a well known kind (the first link), optionally followed by its
// causes. errors.Is and errors.As walk the links in order.
type ErrorChain struct { // nolint: errname
	links   []link
	context any
}

func New(err error) *ErrorChain { return (&ErrorChain{}).append(err, "") }

func NewWithMessage(err error, message string) *ErrorChain {
	return (&ErrorChain{}).append(err, message)
}

func NewWithMessagef(err error, format string, a ...any) *ErrorChain {
	return (&ErrorChain{}).append(err, fmt.Sprintf(format, a...))
}

func (ec *ErrorChain) Error() string {
	parts := make([]string, len(ec.links))
	for idx, l := range ec.links {
		parts[idx] = l.String()
	}

	return strings.Join(parts, ": ")
}

func (ec *ErrorChain) CausedBy(err error) *ErrorChain {
	if err == nil {
		return ec
	}

	return ec.append(err, "")
}

// WithErrorContext attaches a value errors.As can extract into an interface it implements.
func (ec *ErrorChain) WithErrorContext(context any) *ErrorChain {
	ec.context = context

	return ec
}

func (ec *ErrorChain) Unwrap() error {
	if len(ec.links) < 2 { // nolint: mnd
		return nil
	}

	return &ErrorChain{links: ec.links[1:], context: ec.context}
}

func (ec *ErrorChain) Is(target error) bool {
	return len(ec.links) != 0 && errors.Is(ec.links[0].err, target)
}

func (ec *ErrorChain) As(target any) bool {
	if len(ec.links) == 0 {
		return false
	}

	return ec.contextAs(target) || errors.As(ec.links[0].err, target)
}

func (ec *ErrorChain) ErrorContext() any { return ec.context }

// Kind returns the error the chain has been created with.
func (ec *ErrorChain) Kind() error {
	if len(ec.links) == 0 {
		return nil
	}

	return ec.links[0].err
}

// Code is the kind in lower camel case, e.g. "authenticationError". It is the only part of
// a chain which may be shown to end users.
func (ec *ErrorChain) Code() string {
	if kind := ec.Kind(); kind != nil {
		return strcase.ToLowerCamel(kind.Error())
	}

	return ""
}

func (ec *ErrorChain) Errors() []error {
	errs := make([]error, len(ec.links))
	for idx, l := range ec.links {
		errs[idx] = l.err
	}

	return errs
}

func (ec *ErrorChain) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicError{Code: ec.Code()})
}

func (ec *ErrorChain) String() string {
	if len(ec.links) == 0 {
		return ""
	}

	return ec.links[0].err.Error() + ": " + ec.links[0].msg
}

func (ec *ErrorChain) contextAs(target any) bool {
	if ec.context == nil {
		return false
	}

	val := reflect.ValueOf(target)
	targetType := val.Type().Elem()

	if targetType.Kind() != reflect.Interface || !reflect.TypeOf(ec.context).AssignableTo(targetType) {
		return false
	}

	val.Elem().Set(reflect.ValueOf(ec.context))

	return true
}

func (ec *ErrorChain) append(err error, msg string) *ErrorChain {
	ec.links = append(ec.links, link{err: err, msg: msg})

	return ec
}
