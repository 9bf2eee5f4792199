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
	"net/http"
	"time"

	"github.com/dadrus/bifrost/internal/authn"
)

type Request struct {
	RemoteAddr string
	Headers    http.Header
}

// ClientIP returns the ip part of the remote address.
func (r Request) ClientIP() net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return net.ParseIP(host)
}

// Input is the fully resolved data a bypass decision is based on.
type Input struct {
	Principal      *authn.Principal
	Authentication *authn.Authentication
	Request        Request
	Now            time.Time
}

func (in Input) principal() *authn.Principal {
	if in.Principal != nil {
		return in.Principal
	}

	if in.Authentication != nil {
		return in.Authentication.Principal
	}

	return nil
}
