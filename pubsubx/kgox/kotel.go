package kgox

import (
	"github.com/twmb/franz-go/plugin/kotel"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func newKotel(tracerProvider trace.TracerProvider, propagator propagation.TextMapPropagator, meterProvider metric.MeterProvider) *kotel.Kotel {
	var kopts []kotel.Opt

	if tracerProvider != nil {
		tracerOpts := []kotel.TracerOpt{
			kotel.TracerProvider(tracerProvider),
		}
		if propagator != nil {
			tracerOpts = append(tracerOpts, kotel.TracerPropagator(propagator))
		}
		kopts = append(kopts, kotel.WithTracer(kotel.NewTracer(tracerOpts...)))
	}

	if meterProvider != nil {
		kopts = append(kopts, kotel.WithMeter(kotel.NewMeter(kotel.MeterProvider(meterProvider))))
	}

	return kotel.NewKotel(kopts...)
}
