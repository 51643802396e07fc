package otelx

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newResource(serviceName string, attrs []attribute.KeyValue) *resource.Resource {
	atts := append([]attribute.KeyValue{}, semconv.ServiceName(serviceName))
	atts = append(atts, attrs...)

	return resource.NewWithAttributes(semconv.SchemaURL, atts...)
}
