package slogx

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
)

const DefaultRedactionText = "**[REDACTED]**"

// requestLogging is shared by every logger of the process.
var requestLogging = struct {
	sync.RWMutex
	sensitive     map[string]struct{}
	redactionText string
	includeQuery  bool
}{
	sensitive:     map[string]struct{}{},
	redactionText: DefaultRedactionText,
}

// ConfigureSensitiveHeaders adds headers whose values never reach the logs.
func ConfigureSensitiveHeaders(headers ...string) {
	requestLogging.Lock()
	defer requestLogging.Unlock()
	for _, h := range headers {
		requestLogging.sensitive[http.CanonicalHeaderKey(h)] = struct{}{}
	}
}

// ConfigureDefaultSensitiveHeaders redacts the credentials headers.
func ConfigureDefaultSensitiveHeaders() {
	ConfigureSensitiveHeaders("Authorization", "Cookie", "Proxy-Authorization")
}

func ConfigureRedactionText(text string) {
	requestLogging.Lock()
	defer requestLogging.Unlock()
	requestLogging.redactionText = text
}

// ConfigureIncludeQuery logs raw query strings instead of redacting them.
func ConfigureIncludeQuery(include bool) {
	requestLogging.Lock()
	defer requestLogging.Unlock()
	requestLogging.includeQuery = include
}

func RedactHeaders(headers http.Header) slog.Attr {
	requestLogging.RLock()
	defer requestLogging.RUnlock()

	out := make(map[string][]string, len(headers))
	for k, v := range headers {
		if _, ok := requestLogging.sensitive[http.CanonicalHeaderKey(k)]; ok {
			v = []string{requestLogging.redactionText}
		}
		out[k] = v
	}
	return slog.Any("headers", out)
}

// RequestAttrs describes r without its body.
func RequestAttrs(r *http.Request) slog.Attr {
	attrs := []slog.Attr{
		RedactHeaders(r.Header),
		slog.String("proto", r.Proto),
		slog.String("method", r.Method),
		slog.String("path", r.URL.EscapedPath()),
		slog.String("host", r.Host),
		slog.String("scheme", scheme(r)),
		slog.String("remote", remoteIP(r)),
	}

	if r.URL.RawQuery != "" {
		requestLogging.RLock()
		query := requestLogging.redactionText
		if requestLogging.includeQuery {
			query = r.URL.RawQuery
		}
		requestLogging.RUnlock()
		attrs = append(attrs, slog.String("query", query))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String("user-agent", ua))
	}

	return slog.Attr{Key: "http_request", Value: slog.GroupValue(attrs...)}
}

// WithRequest returns sl with the http_request group of r.
func WithRequest(sl *slog.Logger, r *http.Request) *slog.Logger {
	return sl.With(RequestAttrs(r))
}

func scheme(r *http.Request) string {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "https"
	}
	return "http"
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
