package httpx

import (
	"context"
	"net/http"

	"github.com/segmentio/ksuid"
)

const RequestIDHeaderKey = "X-Request-Id"

type requestIDKey struct{}

// RequestIDContextKey holds the request id in the request context.
var RequestIDContextKey = requestIDKey{}

// RequestID reuses the caller's X-Request-Id or generates one, echoes it on the
// response and stores it in the request context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeaderKey)
			if id == "" || len(id) > 128 {
				id = ksuid.New().String()
			}
			w.Header().Set(RequestIDHeaderKey, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDContextKey, id)))
		})
	}
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
