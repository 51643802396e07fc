// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"errors"

	"github.com/clinia/topicbridge/loggerx"
)

type Otel struct {
	tracer *Tracer
	meter  *Meter
}

type OtelOptions struct {
	TracerConfig *TracerConfig
	MeterConfig  *MeterConfig
}

type OtelOption func(*OtelOptions)

func WithTracer(config *TracerConfig) OtelOption {
	return func(opts *OtelOptions) {
		opts.TracerConfig = config
	}
}

func WithMeter(config *MeterConfig) OtelOption {
	return func(opts *OtelOptions) {
		opts.MeterConfig = config
	}
}

// New sets up tracing and metrics. Missing configurations fall back to no-op implementations.
func New(ctx context.Context, l *loggerx.Logger, opts ...OtelOption) (*Otel, error) {
	o := &OtelOptions{}
	for _, opt := range opts {
		opt(o)
	}

	ot := &Otel{
		tracer: NewNoopTracer(""),
		meter:  NewNoopMeter(),
	}

	if o.TracerConfig != nil {
		t, err := NewTracer(ctx, l, o.TracerConfig)
		if err != nil {
			return nil, err
		}
		ot.tracer = t
	}

	if o.MeterConfig != nil {
		m, err := NewMeter(ctx, l, o.MeterConfig)
		if err != nil {
			return nil, err
		}
		ot.meter = m
	}

	return ot, nil
}

func (o *Otel) Tracer() *Tracer {
	return o.tracer
}

func (o *Otel) Meter() *Meter {
	return o.meter
}

// Shutdown flushes pending spans and measurements.
func (o *Otel) Shutdown(ctx context.Context) error {
	return errors.Join(o.tracer.Shutdown(ctx), o.meter.Shutdown(ctx))
}
