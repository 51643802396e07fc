package topicapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/clinia/topicbridge/bridge"
	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/httpx"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TopicsPath              = "/api/kafka/topics"
	AlivePath               = "/health/alive"
	ReadyPath               = "/health/ready"
	MetricsPath             = "/metrics"
	IncludeInternalQueryKey = "include_internal"
	TimeoutQueryKey         = "timeout"

	maxBodyBytes = 1 << 20
)

// CreateTopicBody is the body of PUT /api/kafka/topics.
type CreateTopicBody struct {
	Name              string             `json:"name"`
	Partitions        *int32             `json:"partitions,omitempty"`
	ReplicationFactor *int16             `json:"replication_factor,omitempty"`
	Configs           map[string]*string `json:"configs,omitempty"`
}

// TopicDefaults fill the fields a create request leaves out. Nil values defer to the broker.
type TopicDefaults struct {
	Partitions        *int32
	ReplicationFactor *int16
}

type Handler struct {
	bridge   *bridge.Bridge
	l        *loggerx.Logger
	defaults TopicDefaults
	metrics  http.Handler
	cors     httpx.CORSConfig
}

type HandlerOption func(*Handler)

func WithLogger(l *loggerx.Logger) HandlerOption {
	return func(h *Handler) {
		h.l = l
	}
}

func WithTopicDefaults(d TopicDefaults) HandlerOption {
	return func(h *Handler) {
		h.defaults = d
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(m http.Handler) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithCORS(c httpx.CORSConfig) HandlerOption {
	return func(h *Handler) {
		h.cors = c
	}
}

func NewHandler(b *bridge.Bridge, opts ...HandlerOption) (*Handler, error) {
	if b == nil {
		return nil, errorx.FailedPreconditionErrorf("bridge is required")
	}

	h := &Handler{
		bridge:  b,
		l:       loggerx.NewDiscard(),
		metrics: http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes returns the HTTP surface wrapped with the shared middlewares.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT "+TopicsPath, h.createTopic)
	mux.HandleFunc("GET "+TopicsPath, h.listTopics)
	mux.HandleFunc("DELETE "+TopicsPath+"/{name}", h.deleteTopic)
	mux.HandleFunc("GET "+AlivePath, h.alive)
	mux.HandleFunc("GET "+ReadyPath, h.ready)
	mux.Handle("GET "+MetricsPath, h.metrics)

	return httpx.Chain(mux,
		httpx.Recover(h.l),
		httpx.RequestID(),
		httpx.AccessLog(h.l, AlivePath, ReadyPath, MetricsPath),
		httpx.CORS(h.cors),
	)
}

func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	timeout, err := requestTimeout(r)
	if err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}

	var body CreateTopicBody
	if err := decodeBody(r, &body); err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}

	req := bridge.CreateTopic{
		Name:              body.Name,
		Partitions:        body.Partitions,
		ReplicationFactor: body.ReplicationFactor,
		Configs:           body.Configs,
	}
	if req.Partitions == nil {
		req.Partitions = h.defaults.Partitions
	}
	if req.ReplicationFactor == nil {
		req.ReplicationFactor = h.defaults.ReplicationFactor
	}

	if err := h.await(ctx, req, timeout).Err(); err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	timeout, err := requestTimeout(r)
	if err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}

	includeInternal, err := queryBool(r, IncludeInternalQueryKey)
	if err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}

	o := h.await(ctx, bridge.ListTopics{}, timeout)
	if !o.IsSuccess() {
		httpx.WriteError(ctx, h.l, w, o.Failure)
		return
	}

	topics, ok := o.Value.(bridge.Topics)
	if !ok {
		httpx.WriteError(ctx, h.l, w, errorx.InternalErrorf("unexpected list topics value %T", o.Value))
		return
	}
	if !includeInternal {
		topics = topics.WithoutInternal()
	}
	httpx.WriteJSON(ctx, h.l, w, http.StatusOK, topics)
}

func (h *Handler) deleteTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	timeout, err := requestTimeout(r)
	if err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}

	if err := h.await(ctx, bridge.DeleteTopic{Name: r.PathValue("name")}, timeout).Err(); err != nil {
		httpx.WriteError(ctx, h.l, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) alive(w http.ResponseWriter, r *http.Request) {
	_ = httpx.SetCliniaHealthyHeader(w)
	httpx.WriteJSON(r.Context(), h.l, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.bridge.HealthCheck(ctx, 0); err != nil {
		h.l.WithError(err).Warn(ctx, "readiness check failed")
		_ = httpx.SetCliniaUnHealthyHeader(w)
		httpx.WriteError(ctx, h.l, w, errorx.UnavailableErrorf("broker is not ready"))
		return
	}

	_ = httpx.SetCliniaHealthyHeader(w)
	httpx.WriteJSON(ctx, h.l, w, http.StatusOK, map[string]string{"status": "ok"})
}

// await submits req and waits for its outcome. The request context cancels the operation when the client goes away.
func (h *Handler) await(ctx context.Context, req bridge.Request, timeout time.Duration) bridge.Outcome {
	op := h.bridge.Submit(ctx, req, timeout)
	<-op.Done()
	o, _ := op.Outcome()

	if !o.IsSuccess() {
		h.l.Debug(ctx, "operation failed",
			attribute.String("operation.id", op.ID().String()),
			attribute.String("operation.name", req.Operation()),
			attribute.String("error_type", o.Failure.Type.String()))
	}
	return o
}

// requestTimeout reads the optional timeout query parameter. Zero means the bridge default.
func requestTimeout(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get(TimeoutQueryKey)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errorx.InvalidArgumentErrorf("invalid timeout %q: must be a positive duration", raw)
	}
	return d, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return false, errorx.InvalidArgumentErrorf("invalid %s %q: must be a boolean", key, raw)
	}
	return b, nil
}

// decodeBody reads exactly one JSON value from the body.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errorx.InvalidArgumentErrorf("request body is required")
		}
		return errorx.InvalidArgumentErrorf("malformed request body: %s", err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errorx.InvalidArgumentErrorf("malformed request body: unexpected data after the JSON object")
	}
	return nil
}
