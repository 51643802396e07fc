package otelx

import (
	"github.com/clinia/topicbridge/stringsx"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel/propagation"
)

// NewPropagator builds a composite propagator from propagator names.
// No names means W3C trace context and baggage.
func NewPropagator(names ...string) (propagation.TextMapPropagator, error) {
	if len(names) == 0 {
		names = []string{"tracecontext", "baggage"}
	}

	props := make([]propagation.TextMapPropagator, 0, len(names))
	for _, name := range names {
		switch f := stringsx.SwitchExact(name); {
		case f.AddCase("tracecontext"):
			props = append(props, propagation.TraceContext{})
		case f.AddCase("baggage"):
			props = append(props, propagation.Baggage{})
		case f.AddCase("b3"):
			props = append(props, b3.New())
		case f.AddCase("b3multi"):
			props = append(props, b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)))
		case f.AddCase("jaeger"):
			props = append(props, jaeger.Jaeger{})
		default:
			return nil, f.ToUnknownCaseErr()
		}
	}

	return propagation.NewCompositeTextMapPropagator(props...), nil
}
