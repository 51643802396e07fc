package slogx

import (
	"context"
	"log/slog"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/trace"
)

func NewRequestIDExtractor(requestIDContextKey interface{}, requestIDFieldKey string) slogctx.AttrExtractor {
	return func(ctx context.Context, recordT time.Time, recordLvl slog.Level, recordMsg string) []slog.Attr {
		defer func() {
			// Nullify panic to prevent having this hook break a request
			recover()
		}()

		requestID := ctx.Value(requestIDContextKey)
		if requestID == nil {
			return nil
		}
		return []slog.Attr{slog.Any(requestIDFieldKey, requestID)}
	}
}

// NewTraceExtractor adds the trace and span ids of the span found in the record context.
func NewTraceExtractor() slogctx.AttrExtractor {
	return func(ctx context.Context, recordT time.Time, recordLvl slog.Level, recordMsg string) []slog.Attr {
		spanCtx := trace.SpanContextFromContext(ctx)
		if !spanCtx.IsValid() {
			return nil
		}

		return []slog.Attr{
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		}
	}
}
