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

package encoding

import (
	"bytes"
	"errors"
	"io"

	"github.com/drone/envsubst/v2"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
	"github.com/dadrus/bifrost/internal/x/stringx"
)

// Validator checks a decoded value, e.g. by evaluating its validate struct tags.
type Validator interface {
	ValidateStruct(s any) error
}

type DecoderOption func(d *Decoder)

// WithValidator makes the decoder validate every decoded value. nil is ignored.
func WithValidator(validator Validator) DecoderOption {
	return func(d *Decoder) {
		if validator != nil {
			d.validator = validator
		}
	}
}

// WithErrorOnUnused lets decoding fail if the input contains keys without a matching field.
func WithErrorOnUnused(flag bool) DecoderOption {
	return func(d *Decoder) { d.errorOnUnused = flag }
}

// WithEnvVarsSubstitution expands ${VAR} references before a document is parsed. It has no
// effect on DecodeMap.
func WithEnvVarsSubstitution(flag bool) DecoderOption {
	return func(d *Decoder) { d.substituteEnvVars = flag }
}

// WithDecodeHooks adds hooks applied after the duration hook every decoder has.
func WithDecodeHooks(hooks ...mapstructure.DecodeHookFunc) DecoderOption {
	return func(d *Decoder) { d.hooks = append(d.hooks, hooks...) }
}

// Decoder turns yaml documents or already parsed maps into typed configuration structs.
type Decoder struct {
	validator         Validator
	errorOnUnused     bool
	substituteEnvVars bool
	hooks             []mapstructure.DecodeHookFunc
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	dec := &Decoder{
		hooks: []mapstructure.DecodeHookFunc{mapstructure.StringToTimeDurationHookFunc()},
	}

	for _, opt := range opts {
		opt(dec)
	}

	return dec
}

// Decode reads a yaml (or json) document from the given reader and decodes it into out.
func (d *Decoder) Decode(out any, reader io.Reader) error {
	document, err := d.readDocument(reader)
	if err != nil {
		return err
	}

	var raw map[string]any

	if err = yaml.NewDecoder(document).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return errorchain.NewWithMessage(bifrost.ErrConfiguration, "empty document")
		}

		return errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"parsing of object failed").CausedBy(err)
	}

	return d.DecodeMap(out, raw)
}

// DecodeMap decodes the given map into out and validates the result.
func (d *Decoder) DecodeMap(out any, in map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: d.errorOnUnused,
		TagName:     "mapstructure",
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(d.hooks...),
	})
	if err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal,
			"failed creating object decoder").CausedBy(err)
	}

	if err = dec.Decode(in); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"decoding of object failed").CausedBy(err)
	}

	if d.validator == nil {
		return nil
	}

	if err = d.validator.ValidateStruct(out); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"object validation failed").CausedBy(err)
	}

	return nil
}

func (d *Decoder) readDocument(reader io.Reader) (io.Reader, error) {
	if !d.substituteEnvVars {
		return reader, nil
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrInternal,
			"reading object failed").CausedBy(err)
	}

	content, err := envsubst.EvalEnv(stringx.ToString(raw))
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"substitution of environment variables failed").CausedBy(err)
	}

	return bytes.NewReader(stringx.ToBytes(content)), nil
}
