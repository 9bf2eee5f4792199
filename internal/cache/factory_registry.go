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

package cache

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dadrus/bifrost/internal/x/errorchain"
)

var ErrUnsupportedCacheType = errors.New("cache type unsupported")

// Constructor creates a backend from its type specific configuration.
type Constructor func(conf map[string]any) (Cache, error)

// backends is populated from init functions of the backend packages.
var backends = struct { //nolint:gochecknoglobals
	sync.RWMutex

	ctors map[string]Constructor
}{ctors: make(map[string]Constructor)}

// Register makes a backend available under the given type name. Registering the same type
// twice or a nil constructor is a programming error.
func Register(typ string, ctor Constructor) {
	if ctor == nil {
		panic("cache constructor for type " + typ + " is nil")
	}

	backends.Lock()
	defer backends.Unlock()

	if _, exists := backends.ctors[typ]; exists {
		panic("cache type " + typ + " registered twice")
	}

	backends.ctors[typ] = ctor
}

// Types lists the registered backend types in lexical order.
func Types() []string {
	backends.RLock()
	defer backends.RUnlock()

	return slices.Sorted(maps.Keys(backends.ctors))
}

func Create(typ string, conf map[string]any) (Cache, error) {
	backends.RLock()
	ctor, ok := backends.ctors[typ]
	backends.RUnlock()

	if !ok {
		return nil, errorchain.NewWithMessagef(ErrUnsupportedCacheType,
			"'%s', expected one of %v", typ, Types())
	}

	return ctor(conf)
}
