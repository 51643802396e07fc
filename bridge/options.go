package bridge

import (
	"time"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/otelx"
	"go.opentelemetry.io/otel/metric"
)

// DefaultTimeout applies to submissions made without a positive timeout.
const DefaultTimeout = 30 * time.Second

type options struct {
	logger         *loggerx.Logger
	tracer         *otelx.Tracer
	meterProvider  metric.MeterProvider
	defaultTimeout time.Duration
}

type Option func(*options)

func WithLogger(l *loggerx.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t *otelx.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithDefaultTimeout sets the timeout used when Submit is given a non-positive one.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.defaultTimeout = timeout
		}
	}
}
