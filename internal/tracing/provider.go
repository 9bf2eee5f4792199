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

package tracing

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/x"
)

const serviceName = "bifrost"

// Provider is a tracer provider which has to be shut down to flush pending spans.
type Provider interface {
	trace.TracerProvider

	Shutdown(ctx context.Context) error
}

type noopProvider struct {
	noop.TracerProvider
}

func (noopProvider) Shutdown(context.Context) error { return nil }

// NewProvider creates the tracer provider according to the configuration and installs it,
// together with the propagators selected by OTEL_PROPAGATORS, as the global one. A noop
// provider is returned if tracing is disabled.
func NewProvider(
	ctx context.Context,
	conf config.TracingConfig,
	version string,
	logger zerolog.Logger,
) (Provider, error) {
	if !conf.Enabled {
		logger.Info().Msg("OpenTelemetry tracing disabled.")

		return noopProvider{}, nil
	}

	res, err := newResource(version)
	if err != nil {
		return nil, err
	}

	exporters, err := newSpanExporters(ctx)
	if err != nil {
		return nil, err
	}

	processorOption := x.IfThenElse(conf.SpanProcessor == config.SpanProcessorSimple,
		sdktrace.WithSyncer,
		func(exporter sdktrace.SpanExporter) sdktrace.TracerProviderOption { return sdktrace.WithBatcher(exporter) })

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exporter := range exporters {
		opts = append(opts, processorOption(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) { logger.Error().Err(err).Msg("OTEL Error") }))

	logger.Info().Msg("OpenTelemetry tracing initialized.")

	return provider, nil
}

// newResource describes this service on top of the sdk defaults. The semantic conventions
// version has to be the one the sdk uses, otherwise the schema urls conflict.
func newResource(version string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version)))
}
