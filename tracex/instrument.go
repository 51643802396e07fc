package tracex

import (
	"context"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/otelx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type (
	tracerProvider func(ctx context.Context) *otelx.Tracer
	loggerProvider func() *loggerx.Logger
)

const ComponentNameSeparator = "."

func ComponentName(packageName, structName string) string {
	return packageName + ComponentNameSeparator + structName
}

/*
This allows us to easily instrument our code with a unify way and reduce the boilerplate of instrumentation. `span.End()` must be called at the end of using the span.

	const myComponentName = "xpackage.xStruct"

	func (xs *xStruct) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	    return tracex.Instrument(ctx, xs.logger, xs.tracer, myComponentName, name, opts...)
	}

	func (xs *xStruct) process(ctx context.Context) error {
		ctx, span, l := xs.instrument(ctx, "process")
		defer span.End()
	}
*/
func Instrument(ctx context.Context, lp loggerProvider, tp tracerProvider, componentName string, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	fullComponentName := ComponentName(componentName, name)
	ctx, span := tp(ctx).Tracer().Start(ctx, fullComponentName, opts...)
	l := lp().
		WithSpanStartOptions(opts...).
		WithFields(attribute.Key("component").String(fullComponentName))
	return ctx, span, l
}
