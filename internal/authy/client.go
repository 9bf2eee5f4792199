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

package authy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/ybbus/httpretry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

const (
	apiKeyHeader = "X-Authy-API-Key" // nolint: gosec

	defaultRetryMaxDelay    = 100 * time.Millisecond
	defaultRetryGiveUpAfter = 2 * time.Second
)

var ErrVerificationFailed = errors.New("token verification failed")

type Option func(c *Client)

// WithHTTPClient replaces the http client used to talk to the api.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithRetry(maxDelay, giveUpAfter time.Duration) Option {
	return func(c *Client) {
		c.retryMaxDelay = maxDelay
		c.retryGiveUpAfter = giveUpAfter
	}
}

type Client struct {
	apiURL           *url.URL
	apiKey           string
	client           *http.Client
	retryMaxDelay    time.Duration
	retryGiveUpAfter time.Duration
}

func NewClient(apiURL, apiKey string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration,
			"invalid authy api url").CausedBy(err)
	}

	client := &Client{
		apiURL:           parsed,
		apiKey:           apiKey,
		retryMaxDelay:    defaultRetryMaxDelay,
		retryGiveUpAfter: defaultRetryGiveUpAfter,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.client == nil {
		client.client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return fmt.Sprintf("%s %s @authy", r.Method, r.URL.Path)
				})),
		}
	}

	client.client = httpretry.NewCustomClient(client.client,
		httpretry.WithBackoffPolicy(
			httpretry.ExponentialBackoff(client.retryMaxDelay, client.retryGiveUpAfter, 0)))

	return client, nil
}

// VerifyToken checks the given token for the user registered under authyID.
func (c *Client) VerifyToken(ctx context.Context, authyID, token string) error {
	path := "/protected/json/verify/" + url.PathEscape(token) + "/" + url.PathEscape(authyID)

	payload, status, err := c.do(ctx, http.MethodGet, path, url.Values{"force": {"true"}}, nil)
	if err != nil {
		return err
	}

	if status != http.StatusOK || !gjson.GetBytes(payload, "success").Bool() {
		return errorchain.NewWithMessage(ErrVerificationFailed,
			gjson.GetBytes(payload, "message").String())
	}

	return nil
}

// RegisterUser registers a new user and returns the id assigned by authy.
func (c *Client) RegisterUser(ctx context.Context, email, phone string, countryCode int) (string, error) {
	form := url.Values{
		"user[email]":        {email},
		"user[cellphone]":    {phone},
		"user[country_code]": {strconv.Itoa(countryCode)},
	}

	payload, status, err := c.do(ctx, http.MethodPost, "/protected/json/users/new", nil, form)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(payload, "user.id")
	if status != http.StatusOK || !id.Exists() {
		return "", errorchain.NewWithMessagef(bifrost.ErrCommunication,
			"user registration failed with status %d: %s", status, gjson.GetBytes(payload, "message").String())
	}

	return id.String(), nil
}

// Ping checks whether the api is reachable and the api key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodGet, "/protected/json/app/details", nil, nil)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return errorchain.NewWithMessagef(bifrost.ErrCommunication,
			"unexpected response status %d", status)
	}

	return nil
}

func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, form url.Values,
) ([]byte, int, error) {
	logger := zerolog.Ctx(ctx)

	endpoint := c.apiURL.JoinPath(path)
	endpoint.RawQuery = query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, 0, errorchain.NewWithMessage(bifrost.ErrInternal,
			"failed creating authy request").CausedBy(err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	logger.Debug().Str("_method", method).Str("_path", path).Msg("Sending request to authy")

	resp, err := c.client.Do(req)
	if err != nil {
		var clientErr *url.Error
		if (errors.As(err, &clientErr) && clientErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, errorchain.NewWithMessage(bifrost.ErrCommunicationTimeout,
				"request to authy timed out").CausedBy(err)
		}

		return nil, 0, errorchain.NewWithMessage(bifrost.ErrCommunication,
			"request to authy failed").CausedBy(err)
	}

	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errorchain.NewWithMessage(bifrost.ErrCommunication,
			"failed reading authy response").CausedBy(err)
	}

	return payload, resp.StatusCode, nil
}
