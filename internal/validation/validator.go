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

package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// fieldNameTags are consulted in order to name a field in validation messages.
var fieldNameTags = []string{"mapstructure", "json", "yaml", "koanf"} //nolint:gochecknoglobals

// DefaultValidator knows the built-in tags only. Components needing custom tags create
// their own one via NewValidator.
var DefaultValidator = mustNewValidator() //nolint:gochecknoglobals

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(opts ...Option) (*Validator, error) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(fieldName)

	if err := entranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt.apply(validate, translator); err != nil {
			return nil, err
		}
	}

	return &Validator{validate: validate, translator: translator}, nil
}

// ValidateStruct returns nil or an error listing every violation as translated message.
func (v *Validator) ValidateStruct(s any) error {
	return wrapError(v.validate.Struct(s), v.translator)
}

func ValidateStruct(s any) error { return DefaultValidator.ValidateStruct(s) }

// fieldName renders a field as it is spelled in the configuration, e.g. 'max_entries'.
func fieldName(fld reflect.StructField) string {
	name := fld.Name

	for _, tag := range fieldNameTags {
		if value, _, _ := strings.Cut(fld.Tag.Get(tag), ","); len(value) != 0 {
			name = value

			break
		}
	}

	return "'" + name + "'"
}

func mustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}

	return v
}
