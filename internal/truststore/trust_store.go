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

package truststore

import (
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const pemBlockTypeCertificate = "CERTIFICATE"

type TrustStore []*x509.Certificate

func NewTrustStoreFromPEMFile(pemFilePath string) (TrustStore, error) {
	fInfo, err := os.Stat(pemFilePath)
	if err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed to access %s", pemFilePath).CausedBy(err)
	}

	if fInfo.IsDir() {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration, "'%s' is not a file", pemFilePath)
	}

	contents, err := os.ReadFile(pemFilePath)
	if err != nil {
		return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
			"failed to read %s", pemFilePath).CausedBy(err)
	}

	return NewTrustStoreFromPEMBytes(contents)
}

func NewTrustStoreFromPEMBytes(pemBytes []byte) (TrustStore, error) {
	var (
		certs TrustStore
		block *pem.Block
	)

	for idx := 0; ; idx++ {
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}

		if block.Type != pemBlockTypeCertificate {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"unsupported entry '%s' in the pem file", block.Type)
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed to parse %d entry in the pem file", idx).CausedBy(err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration, "no certificates found")
	}

	return certs, nil
}

// CertPool returns a pool containing all certificates of the trust store.
func (ts TrustStore) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()

	for _, cert := range ts {
		pool.AddCert(cert)
	}

	return pool
}
