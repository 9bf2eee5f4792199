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
	"errors"
	"fmt"
)

var errIncompatibleTypes = errors.New("incompatible types")

// merge combines src into dest. Maps are merged by key, slices by index, everything else is
// replaced by src. A map or slice can only be merged with a value of the same shape. A nil
// map or slice in dest, as produced for unset struct defaults, is replaced by src.
func merge(dest, src any) (any, error) {
	if dest == nil {
		return src, nil
	}

	switch dv := dest.(type) {
	case map[string]any:
		if dv == nil {
			return src, nil
		}

		sv, ok := src.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot merge %T into a map", errIncompatibleTypes, src)
		}

		return mergeMaps(dv, sv)
	case []any:
		if dv == nil {
			return src, nil
		}

		sv, ok := src.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot merge %T into a list", errIncompatibleTypes, src)
		}

		return mergeSlices(dv, sv)
	default:
		return src, nil
	}
}

// mergeSlices merges by index. A nil entry in src keeps the corresponding entry of dest.
func mergeSlices(dest, src []any) ([]any, error) {
	if len(dest) < len(src) {
		grown := make([]any, len(src))
		copy(grown, dest)
		dest = grown
	}

	for idx, val := range src {
		if val == nil {
			continue
		}

		merged, err := merge(dest[idx], val)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}

		dest[idx] = merged
	}

	return dest, nil
}

func mergeMaps(dest, src map[string]any) (map[string]any, error) {
	for key, val := range src {
		merged, err := merge(dest[key], val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		dest[key] = merged
	}

	return dest, nil
}
