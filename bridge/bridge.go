package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/otelx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/clinia/topicbridge/timerx"
	"github.com/clinia/topicbridge/tracex"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const componentName = "bridge.Bridge"

// Bridge submits administrative requests to the broker and resolves each of them exactly once,
// with the broker result, a timeout, a cancellation or the bridge shutdown, whichever comes first.
type Bridge struct {
	client         pubsubx.PubSubAdminClient
	l              *loggerx.Logger
	tracer         *otelx.Tracer
	metrics        *metrics
	defaultTimeout time.Duration

	inFlight  *xsync.MapOf[ksuid.KSUID, *PendingOperation]
	closed    atomic.Bool
	closeOnce sync.Once
}

func New(client pubsubx.PubSubAdminClient, opts ...Option) (*Bridge, error) {
	if client == nil {
		return nil, errorx.FailedPreconditionErrorf("admin client is required")
	}

	o := &options{
		logger:         loggerx.NewDiscard(),
		tracer:         otelx.NewNoopTracer(componentName),
		meterProvider:  noop.NewMeterProvider(),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		client:         client,
		l:              o.logger,
		tracer:         o.tracer,
		metrics:        m,
		defaultTimeout: o.defaultTimeout,
		inFlight:       xsync.NewMapOf[ksuid.KSUID, *PendingOperation](),
	}, nil
}

func (b *Bridge) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	return tracex.Instrument(ctx, b.logger, b.tracerProvider, componentName, name, opts...)
}

func (b *Bridge) logger() *loggerx.Logger {
	return b.l
}

func (b *Bridge) tracerProvider(context.Context) *otelx.Tracer {
	return b.tracer
}

// DefaultTimeout is the timeout applied when Submit is given a non-positive one.
func (b *Bridge) DefaultTimeout() time.Duration {
	return b.defaultTimeout
}

// Submit issues req against the broker without blocking and returns its pending operation.
// A non-positive timeout uses the default timeout. Cancelling ctx resolves the operation as a timeout.
// Invalid requests and submissions to a closed bridge resolve immediately without reaching the broker.
func (b *Bridge) Submit(ctx context.Context, req Request, timeout time.Duration) *PendingOperation {
	op := newPendingOperation(req)

	if err := ValidateRequest(req); err != nil {
		b.settleImmediately(ctx, op, Failure(err))
		return op
	}

	if b.closed.Load() {
		b.settleImmediately(ctx, op, Failure(errorx.UnavailableErrorf("bridge is closed")))
		return op
	}

	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	ctx, span, l := b.instrument(ctx, req.Operation(), trace.WithAttributes(
		attribute.String("operation.id", op.id.String()),
		attribute.String("operation.name", req.Operation()),
		attribute.String("operation.timeout", timeout.String()),
	))

	b.inFlight.Store(op.id, op)
	b.metrics.submitted(ctx, req.Operation())

	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	// Close may have drained the registry between the check above and the registration.
	if b.closed.Load() {
		op.resolve(Failure(errorx.UnavailableErrorf("bridge is closed")))
	} else {
		go b.call(callCtx, op, l)
	}
	go b.reap(ctx, op, timeout, cancel, span, l)

	return op
}

// call runs the broker request. Its result is discarded when the operation was resolved first.
func (b *Bridge) call(ctx context.Context, op *PendingOperation, l *loggerx.Logger) {
	o := b.execute(ctx, op.request, l)
	if op.resolve(o) {
		return
	}

	b.metrics.lateResponse(ctx, op.request.Operation())
	current, _ := op.Outcome()
	l.Debug(ctx, "discarding late broker response",
		attribute.String("operation.id", op.id.String()),
		attribute.String("late_outcome", outcomeLabel(o)),
		attribute.String("outcome", outcomeLabel(current)),
	)
}

// reap resolves the operation on timeout or cancellation, then releases everything held for it.
func (b *Bridge) reap(ctx context.Context, op *PendingOperation, timeout time.Duration, cancel context.CancelFunc, span trace.Span, l *loggerx.Logger) {
	defer span.End()
	defer cancel()

	timer := time.NewTimer(timeout)
	defer timerx.StopTimer(timer)

	select {
	case <-op.done:
	case <-timer.C:
		op.resolve(Failure(errorx.DeadlineExceededErrorf("operation exceeded deadline")))
	case <-ctx.Done():
		op.resolve(Failure(errorx.DeadlineExceededErrorf("operation cancelled")))
	}

	// op.done is closed once resolve returns on any path.
	<-op.done

	b.inFlight.Delete(op.id)

	o := op.outcome
	mctx := context.WithoutCancel(ctx)
	b.metrics.resolved(mctx, op.request.Operation(), o, op.Elapsed(), true)

	if o.IsSuccess() {
		span.SetStatus(codes.Ok, "")
		l.Debug(mctx, "broker operation succeeded", attribute.String("operation.id", op.id.String()))
		return
	}

	span.RecordError(o.Failure)
	span.SetStatus(codes.Error, o.Failure.Message)
	l.WithError(o.Failure).Info(mctx, "broker operation failed",
		attribute.String("operation.id", op.id.String()),
		attribute.String("outcome", outcomeLabel(o)),
	)
}

func (b *Bridge) settleImmediately(ctx context.Context, op *PendingOperation, o Outcome) {
	op.resolve(o)
	operation := "unknown"
	if op.request != nil {
		operation = op.request.Operation()
	}
	b.metrics.resolved(ctx, operation, o, op.Elapsed(), false)
}

// execute dispatches req to the admin client. A panicking client resolves as an internal failure.
func (b *Bridge) execute(ctx context.Context, req Request, l *loggerx.Logger) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			l.Error(ctx, "recovered from a panic in the admin client", tracex.StackTraceAttrs(r)...)
			o = Failure(errorx.InternalErrorf("admin client panicked: %s", tracex.PanicMessage(r)))
		}
	}()

	switch r := req.(type) {
	case CreateTopic:
		partitions, replicationFactor := int32(-1), int16(-1)
		if r.Partitions != nil {
			partitions = *r.Partitions
		}
		if r.ReplicationFactor != nil {
			replicationFactor = *r.ReplicationFactor
		}

		var configs []map[string]*string
		if len(r.Configs) > 0 {
			configs = append(configs, r.Configs)
		}

		if _, err := b.client.CreateTopic(ctx, partitions, replicationFactor, r.Name, configs...); err != nil {
			return Failure(Classify(err))
		}
		return Success(nil)
	case ListTopics:
		details, err := b.client.ListTopics(ctx)
		if err != nil {
			return Failure(Classify(err))
		}
		return Success(NewTopics(details))
	case DeleteTopic:
		if _, err := b.client.DeleteTopic(ctx, r.Name); err != nil {
			return Failure(Classify(err))
		}
		return Success(nil)
	default:
		return Failure(errorx.InternalErrorf("unsupported request %T", req))
	}
}

// CreateTopic submits a CreateTopic request and waits for its outcome.
// The returned error is the *errorx.CliniaError failure.
func (b *Bridge) CreateTopic(ctx context.Context, req CreateTopic, timeout time.Duration) error {
	return await(b.Submit(ctx, req, timeout)).Err()
}

// ListTopics submits a ListTopics request and waits for its outcome.
func (b *Bridge) ListTopics(ctx context.Context, timeout time.Duration) (Topics, error) {
	o := await(b.Submit(ctx, ListTopics{}, timeout))
	if !o.IsSuccess() {
		return nil, o.Failure
	}
	topics, _ := o.Value.(Topics)
	return topics, nil
}

// DeleteTopic submits a DeleteTopic request and waits for its outcome.
func (b *Bridge) DeleteTopic(ctx context.Context, name string, timeout time.Duration) error {
	return await(b.Submit(ctx, DeleteTopic{Name: name}, timeout)).Err()
}

// await does not need a context: every submitted operation resolves within its timeout.
func await(op *PendingOperation) Outcome {
	<-op.Done()
	o, _ := op.Outcome()
	return o
}

// HealthCheck checks the broker connection within timeout. A non-positive timeout uses the default timeout.
func (b *Bridge) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if b.closed.Load() {
		return errorx.UnavailableErrorf("bridge is closed")
	}
	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.client.HealthCheck(ctx); err != nil {
		return Classify(err)
	}
	return nil
}

// InFlight returns the number of submitted operations not yet released.
func (b *Bridge) InFlight() int {
	return b.inFlight.Size()
}

// Close rejects new submissions, resolves the pending operations as unavailable and closes the admin client.
// It is safe to call Close more than once.
func (b *Bridge) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)

		drained := 0
		b.inFlight.Range(func(_ ksuid.KSUID, op *PendingOperation) bool {
			if op.resolve(Failure(errorx.UnavailableErrorf("bridge is closed"))) {
				drained++
			}
			return true
		})

		b.client.Close()
		b.l.Info(ctx, "bridge closed", attribute.Int("drained_operations", drained))
	})
	return nil
}
