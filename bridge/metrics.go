package bridge

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/clinia/topicbridge/bridge"

type metrics struct {
	operations    metric.Int64Counter
	duration      metric.Float64Histogram
	inFlight      metric.Int64UpDownCounter
	lateResponses metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	m := mp.Meter(meterName)

	operations, err := m.Int64Counter("topicbridge.operations",
		metric.WithDescription("Resolved broker operations by operation and outcome."),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	duration, err := m.Float64Histogram("topicbridge.operation.duration",
		metric.WithDescription("Time between the submission and the resolution of broker operations."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	inFlight, err := m.Int64UpDownCounter("topicbridge.operations.in_flight",
		metric.WithDescription("Broker operations submitted and not yet resolved."),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	lateResponses, err := m.Int64Counter("topicbridge.late_responses",
		metric.WithDescription("Broker responses discarded because the operation was already resolved."),
		metric.WithUnit("{response}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &metrics{
		operations:    operations,
		duration:      duration,
		inFlight:      inFlight,
		lateResponses: lateResponses,
	}, nil
}

func outcomeLabel(o Outcome) string {
	if o.IsSuccess() {
		return "success"
	}
	return o.Failure.Type.String()
}

func (m *metrics) submitted(ctx context.Context, operation string) {
	m.inFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *metrics) resolved(ctx context.Context, operation string, o Outcome, elapsed time.Duration, wasInFlight bool) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcomeLabel(o)),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if wasInFlight {
		m.inFlight.Add(ctx, -1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

func (m *metrics) lateResponse(ctx context.Context, operation string) {
	m.lateResponses.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
