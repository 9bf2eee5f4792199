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
	"errors"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/x/errorchain"
)

var (
	ErrUnsupportedExporterType = errors.New("unsupported traces exporter type")
	ErrUnsupportedOTLPProtocol = errors.New("unsupported OTLP protocol")
)

type exporterFactory func(ctx context.Context) (trace.SpanExporter, error)

// nolint: gochecknoglobals
var exporterFactories = map[string]exporterFactory{
	"otlp": func(ctx context.Context) (trace.SpanExporter, error) {
		protocol, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")
		if !ok {
			protocol = envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
		}

		switch protocol {
		case "grpc":
			return otlptracegrpc.New(ctx)
		case "http/protobuf":
			return otlptracehttp.New(ctx)
		default:
			return nil, errorchain.NewWithMessage(ErrUnsupportedOTLPProtocol, protocol)
		}
	},
	"zipkin": func(_ context.Context) (trace.SpanExporter, error) {
		return zipkin.New("")
	},
}

// newSpanExporters creates the exporters named in OTEL_TRACES_EXPORTER. "otlp" is used if
// the variable is not set. "none" disables exporting altogether.
func newSpanExporters(ctx context.Context) ([]trace.SpanExporter, error) {
	names := strings.Split(envOr("OTEL_TRACES_EXPORTER", "otlp"), ",")
	exporters := make([]trace.SpanExporter, 0, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "none" {
			return nil, nil
		}

		create, ok := exporterFactories[name]
		if !ok {
			return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration, name).
				CausedBy(ErrUnsupportedExporterType)
		}

		exporter, err := create(ctx)
		if err != nil {
			return nil, errorchain.NewWithMessagef(bifrost.ErrConfiguration,
				"failed creating '%s' traces exporter", name).CausedBy(err)
		}

		exporters = append(exporters, exporter)
	}

	return exporters, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && len(value) != 0 {
		return value
	}

	return fallback
}
