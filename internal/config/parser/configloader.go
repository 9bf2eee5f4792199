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

package parser

import (
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

type ConfigLoader interface {
	Load(config any) error
}

func New(opts ...Option) ConfigLoader {
	loader := &configLoader{o: defaultOptions}

	for _, opt := range opts {
		opt(&loader.o)
	}

	return loader
}

type configLoader struct {
	o opts
}

// source produces one configuration layer. Later layers override earlier ones.
type source func() (*koanf.Koanf, error)

// Load fills config in three layers: the values already present in config, the YAML file
// (if any) and the prefixed environment variables.
func (c *configLoader) Load(config any) error {
	configFile, err := c.configFile()
	if err != nil {
		return err
	}

	layers := make([]source, 0, 2) // nolint: mnd

	if len(configFile) != 0 {
		if c.o.validate != nil {
			if err = c.o.validate(configFile); err != nil {
				return err
			}
		}

		layers = append(layers, func() (*koanf.Koanf, error) { return koanfFromYaml(configFile) })
	}

	layers = append(layers, func() (*koanf.Koanf, error) { return koanfFromEnv(c.o.envPrefix) })

	parser, err := koanfFromStruct(config)
	if err != nil {
		return err
	}

	for _, layer := range layers {
		if err = c.apply(parser, layer); err != nil {
			return err
		}
	}

	return parser.UnmarshalWithConf("", config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(c.o.decodeHooks...),
			Result:           config,
			WeaklyTypedInput: true,
		},
	})
}

func (c *configLoader) apply(parser *koanf.Koanf, layer source) error {
	konf, err := layer()
	if err != nil {
		return err
	}

	return parser.Load(confmap.Provider(konf.Raw(), ""), nil,
		koanf.WithMergeFunc(func(src, dest map[string]any) error {
			for key, val := range src {
				merged, err := merge(dest[key], val)
				if err != nil {
					return errorchain.NewWithMessagef(bifrost.ErrConfiguration,
						"failed merging configuration key '%s'", key).CausedBy(err)
				}

				dest[key] = merged
			}

			return nil
		}))
}

func (c *configLoader) configFile() (string, error) {
	if len(c.o.configFile) != 0 {
		if _, err := os.Stat(c.o.configFile); err != nil {
			return "", err
		}

		return c.o.configFile, nil
	}

	for _, dir := range c.o.configLookupDirs {
		path := filepath.Join(dir, c.o.defaultConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}
