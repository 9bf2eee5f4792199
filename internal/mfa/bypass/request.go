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

package bypass

import (
	"net"

	"github.com/yl2chen/cidranger"
)

type remoteAddress struct {
	r cidranger.Ranger
}

// RemoteAddress bypasses if the client ip is within one of the given networks.
func RemoteAddress(cidrs ...string) (Evaluator, error) {
	ranger := cidranger.NewPCTrieRanger()

	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}

		if err = ranger.Insert(cidranger.NewBasicRangerEntry(*ipNet)); err != nil {
			return nil, err
		}
	}

	return &remoteAddress{r: ranger}, nil
}

func (e *remoteAddress) Evaluate(_ string, in Input) bool {
	ip := in.Request.ClientIP()
	if ip == nil {
		return false
	}

	ok, err := e.r.Contains(ip)

	return err == nil && ok
}

type httpHeader struct {
	name    string
	matcher valueMatcher
}

// HTTPHeader bypasses if the request carries the header with a value matching the pattern.
func HTTPHeader(name, pattern string) (Evaluator, error) {
	matcher, err := newValueMatcher(pattern)
	if err != nil {
		return nil, err
	}

	return &httpHeader{name: name, matcher: matcher}, nil
}

func (e *httpHeader) Evaluate(_ string, in Input) bool {
	values := in.Request.Headers.Values(e.name)
	converted := make([]any, len(values))

	for idx, value := range values {
		converted[idx] = value
	}

	return e.matcher.match(converted)
}
