package httpx

import (
	"log/slog"
	"net/http"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/slogx"
	"github.com/clinia/topicbridge/tracex"
	"github.com/felixge/httpsnoop"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h with the middlewares, the first one being the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// AccessLog logs one record per request once the response is written.
// Health probes are logged at debug level.
func AccessLog(l *loggerx.Logger, quietPaths ...string) Middleware {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			rl := &loggerx.Logger{Logger: slogx.WithRequest(l.Logger, r)}
			kvs := []attribute.KeyValue{
				attribute.Int("status", m.Code),
				attribute.Int64("written", m.Written),
				attribute.Int64("duration_ms", m.Duration.Milliseconds()),
			}

			level := slog.LevelInfo
			if _, ok := quiet[r.URL.Path]; ok {
				level = slog.LevelDebug
			}
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			switch level {
			case slog.LevelDebug:
				rl.Debug(r.Context(), "request completed", kvs...)
			case slog.LevelWarn:
				rl.Warn(r.Context(), "request completed", kvs...)
			default:
				rl.Info(r.Context(), "request completed", kvs...)
			}
		})
	}
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// CORS answers preflight requests for the configured origins. Without origins it is a passthrough.
func CORS(c CORSConfig) Middleware {
	if len(c.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	co := cors.New(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{CliniaHealthyHeaderKey},
	})
	return co.Handler
}

// Recover turns a panicking handler into an internal error response.
func Recover(l *loggerx.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error(r.Context(), "http handler panicked", tracex.StackTraceAttrs(rec)...)
					WriteError(r.Context(), l, w, errorx.InternalErrorf("internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
