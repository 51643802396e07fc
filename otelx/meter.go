// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"net/http"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/stringsx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Meter struct {
	meter    metric.Meter
	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// NewMeter constructs the meter based on the given configuration.
func NewMeter(ctx context.Context, l *loggerx.Logger, c *MeterConfig) (*Meter, error) {
	switch f := stringsx.SwitchExact(c.Provider); {
	case f.AddCase("prometheus"):
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		mp, err := SetupPrometheusMeterProvider(c, registry)
		if err != nil {
			return nil, err
		}

		l.Info(ctx, "Prometheus meter configured! Serving measurements on the /metrics endpoint")
		return &Meter{
			meter:    mp.Meter(c.Name),
			provider: mp,
			sdk:      mp,
			registry: registry,
		}, nil
	case f.AddCase("otel"):
		mp, err := SetupOTLPMeterProvider(ctx, c)
		if err != nil {
			return nil, err
		}

		l.Info(ctx, "OTLP meter configured", attribute.String("server_url", c.Providers.OTLP.ServerURL), attribute.String("protocol", c.Providers.OTLP.Protocol))
		return &Meter{meter: mp.Meter(c.Name), provider: mp, sdk: mp}, nil
	case f.AddCase("stdout"):
		mp, err := SetupStdoutMeterProvider(c)
		if err != nil {
			return nil, err
		}

		l.Info(ctx, "Stdout meter configured! Sending measurements to stdout")
		return &Meter{meter: mp.Meter(c.Name), provider: mp, sdk: mp}, nil
	case f.AddCase(""):
		l.Info(ctx, "No meter configured - skipping metrics setup")
		return NewNoopMeter(), nil
	default:
		return nil, f.ToUnknownCaseErr()
	}
}

func NewNoopMeter() *Meter {
	mp := noop.NewMeterProvider()
	return &Meter{
		meter:    mp.Meter("NoopMeter"),
		provider: mp,
	}
}

// SetupPrometheusMeterProvider exports measurements through a prometheus collector registered on registerer.
func SetupPrometheusMeterProvider(c *MeterConfig, registerer prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	), nil
}

// IsLoaded returns true if the meter has been loaded.
func (m *Meter) IsLoaded() bool {
	if m == nil || m.meter == nil {
		return false
	}
	return true
}

// Meter returns the underlying OpenTelemetry meter.
func (m *Meter) Meter() metric.Meter {
	return m.meter
}

// Provider returns the meter provider backing this meter.
func (m *Meter) Provider() metric.MeterProvider {
	return m.provider
}

// Handler serves the prometheus exposition format. It answers 404 when metrics are disabled.
func (m *Meter) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider, if any.
func (m *Meter) Shutdown(ctx context.Context) error {
	if m == nil || m.sdk == nil {
		return nil
	}
	return m.sdk.Shutdown(ctx)
}
