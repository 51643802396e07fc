// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/stringsx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Tracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	provider   *sdktrace.TracerProvider
}

// NewTracer constructs the tracer based on the given configuration.
func NewTracer(ctx context.Context, l *loggerx.Logger, c *TracerConfig) (*Tracer, error) {
	prop, err := NewPropagator(c.Propagators...)
	if err != nil {
		return nil, err
	}

	t := &Tracer{propagator: prop}
	switch f := stringsx.SwitchExact(c.Provider); {
	case f.AddCase("otel"):
		tp, err := SetupOTLPTracerProvider(ctx, c)
		if err != nil {
			return nil, err
		}

		t.provider = tp
		l.Info(ctx, "OTLP tracer configured", attribute.String("server_url", c.Providers.OTLP.ServerURL), attribute.String("protocol", c.Providers.OTLP.Protocol))
	case f.AddCase("stdout"):
		tp, err := SetupStdoutTracerProvider(c)
		if err != nil {
			return nil, err
		}

		t.provider = tp
		l.Info(ctx, "Stdout tracer configured! Sending spans to stdout")
	case f.AddCase(""):
		l.Info(ctx, "No tracer configured - skipping tracing setup")
		t.tracer = noop.NewTracerProvider().Tracer(c.Name)
		return t, nil
	default:
		return nil, f.ToUnknownCaseErr()
	}

	t.tracer = t.provider.Tracer(c.Name)
	return t, nil
}

// NewNoopTracer returns a tracer that records nothing.
func NewNoopTracer(name string) *Tracer {
	return &Tracer{
		tracer:     noop.NewTracerProvider().Tracer(name),
		propagator: propagation.NewCompositeTextMapPropagator(),
	}
}

// IsLoaded returns true if the tracer has been loaded.
func (t *Tracer) IsLoaded() bool {
	if t == nil || t.tracer == nil {
		return false
	}
	return true
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Provider returns a TracerProvider which in turn yieds this tracer unmodified.
func (t *Tracer) Provider() trace.TracerProvider {
	return tracerProvider{t: t.Tracer()}
}

type tracerProvider struct {
	noop.TracerProvider
	t trace.Tracer
}

var _ trace.TracerProvider = tracerProvider{}

// Tracer implements trace.TracerProvider.
func (tp tracerProvider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tp.t
}

// TextMapPropagator returns the underlying OpenTelemetry textMapPropagator.
func (t *Tracer) TextMapPropagator() propagation.TextMapPropagator {
	return t.propagator
}

// Shutdown flushes and stops the exporter, if any.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
