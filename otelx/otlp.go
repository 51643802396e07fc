// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func SetupOTLPTracerProvider(ctx context.Context, c *TracerConfig) (*sdktrace.TracerProvider, error) {
	exp, err := getExporter(ctx, c)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(
			c.Providers.OTLP.Sampling.SamplingRatio,
		))),
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func getExporter(ctx context.Context, c *TracerConfig) (*otlptrace.Exporter, error) {
	switch c.Providers.OTLP.Protocol {
	case "http":
		clientOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(c.Providers.OTLP.ServerURL),
		}

		if c.Providers.OTLP.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}

		return otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
	case "grpc", "":
		creds := credentials.NewTLS(nil)
		if c.Providers.OTLP.Insecure {
			creds = insecure.NewCredentials()
		}

		// The connection is lazy, no round trip happens before the first export.
		conn, err := grpc.NewClient(c.Providers.OTLP.ServerURL, grpc.WithTransportCredentials(creds))
		if err != nil {
			return nil, errors.Errorf("failed to connect to OTLP gRPC endpoint: %s", err)
		}

		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Errorf("failed to create trace exporter: %s", err)
		}

		return exp, nil
	default:
		return nil, errors.Errorf("unknown protocol: %s", c.Providers.OTLP.Protocol)
	}
}
