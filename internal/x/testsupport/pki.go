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

package testsupport

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"
)

// CertOption shapes a certificate issued by a CA.
type CertOption func(tmpl *x509.Certificate, pubKey *any)

func WithValidity(notBefore time.Time, duration time.Duration) CertOption {
	return func(tmpl *x509.Certificate, _ *any) {
		tmpl.NotBefore = notBefore
		tmpl.NotAfter = notBefore.Add(duration)
	}
}

func WithSubject(name pkix.Name) CertOption {
	return func(tmpl *x509.Certificate, _ *any) { tmpl.Subject = name }
}

func WithEmailAddresses(emails ...string) CertOption {
	return func(tmpl *x509.Certificate, _ *any) { tmpl.EmailAddresses = emails }
}

func WithExtendedKeyUsage(usage ...x509.ExtKeyUsage) CertOption {
	return func(tmpl *x509.Certificate, _ *any) { tmpl.ExtKeyUsage = usage }
}

func WithSubjectPubKey(key crypto.PublicKey, alg x509.SignatureAlgorithm) CertOption {
	return func(tmpl *x509.Certificate, pubKey *any) {
		tmpl.SignatureAlgorithm = alg
		*pubKey = key
	}
}

func WithIsCA() CertOption {
	return func(tmpl *x509.Certificate, _ *any) {
		tmpl.IsCA = true
		tmpl.BasicConstraintsValid = true
		tmpl.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	}
}

// CA issues certificates for tests. Serial numbers are random.
type CA struct {
	PrivKey     *ecdsa.PrivateKey
	Certificate *x509.Certificate
}

func NewRootCA(commonName string, validity time.Duration) (*CA, error) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, err
	}

	tmpl, pubKey, err := template(
		WithSubject(pkix.Name{CommonName: commonName, Organization: []string{"Test"}, Country: []string{"EU"}}),
		WithValidity(time.Now().Add(-time.Minute), validity),
		WithSubjectPubKey(&key.PublicKey, x509.ECDSAWithSHA384),
		WithIsCA(),
	)
	if err != nil {
		return nil, err
	}

	cert, err := sign(tmpl, tmpl, pubKey, key)
	if err != nil {
		return nil, err
	}

	return &CA{PrivKey: key, Certificate: cert}, nil
}

func (ca *CA) IssueCertificate(opts ...CertOption) (*x509.Certificate, error) {
	tmpl, pubKey, err := template(opts...)
	if err != nil {
		return nil, err
	}

	return sign(tmpl, ca.Certificate, pubKey, ca.PrivKey)
}

// IssueClientCertificate creates an end entity certificate usable for tls client authentication.
func (ca *CA) IssueClientCertificate(subject pkix.Name, validity time.Duration) (*x509.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	return ca.IssueCertificate(
		WithSubject(subject),
		WithValidity(time.Now().Add(-time.Minute), validity),
		WithSubjectPubKey(&key.PublicKey, x509.ECDSAWithSHA384),
		WithExtendedKeyUsage(x509.ExtKeyUsageClientAuth),
		func(tmpl *x509.Certificate, _ *any) { tmpl.KeyUsage = x509.KeyUsageDigitalSignature },
	)
}

func EncodeToPEM(certs ...*x509.Certificate) []byte {
	var out []byte

	for _, cert := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
	}

	return out
}

func template(opts ...CertOption) (*x509.Certificate, any, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 63)) //nolint:mnd
	if err != nil {
		return nil, nil, err
	}

	var pubKey any

	tmpl := &x509.Certificate{SerialNumber: serial}
	for _, opt := range opts {
		opt(tmpl, &pubKey)
	}

	return tmpl, pubKey, nil
}

func sign(tmpl, parent *x509.Certificate, pubKey any, signer crypto.Signer) (*x509.Certificate, error) {
	raw, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pubKey, signer)
	if err != nil {
		return nil, err
	}

	return x509.ParseCertificate(raw)
}
