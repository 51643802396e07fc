package bridge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
)

const (
	statePending int32 = iota
	stateResolving
	stateResolved
)

// PendingOperation is the handle of a submitted request. It resolves exactly once.
type PendingOperation struct {
	id          ksuid.KSUID
	request     Request
	submittedAt time.Time

	state      atomic.Int32
	outcome    Outcome
	resolvedAt time.Time
	done       chan struct{}
}

func newPendingOperation(req Request) *PendingOperation {
	return &PendingOperation{
		id:          ksuid.New(),
		request:     req,
		submittedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// resolve stores the outcome if the operation is still pending and reports whether it did.
func (op *PendingOperation) resolve(o Outcome) bool {
	if !op.state.CompareAndSwap(statePending, stateResolving) {
		return false
	}

	op.outcome = o
	op.resolvedAt = time.Now()
	op.state.Store(stateResolved)
	close(op.done)
	return true
}

func (op *PendingOperation) ID() ksuid.KSUID {
	return op.id
}

func (op *PendingOperation) Request() Request {
	return op.request
}

func (op *PendingOperation) SubmittedAt() time.Time {
	return op.submittedAt
}

// Done is closed once the operation is resolved.
func (op *PendingOperation) Done() <-chan struct{} {
	return op.done
}

// Outcome returns the outcome without blocking. ok is false while the operation is pending.
func (op *PendingOperation) Outcome() (o Outcome, ok bool) {
	if op.state.Load() != stateResolved {
		return Outcome{}, false
	}
	return op.outcome, true
}

// Await blocks until the operation is resolved or ctx is done.
// Giving up on ctx does not affect the operation.
func (op *PendingOperation) Await(ctx context.Context) (Outcome, error) {
	select {
	case <-op.done:
		return op.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// ResolvedAt returns the zero time while the operation is pending.
func (op *PendingOperation) ResolvedAt() time.Time {
	if op.state.Load() != stateResolved {
		return time.Time{}
	}
	return op.resolvedAt
}

// Elapsed is the time between submission and resolution, or since submission while pending.
func (op *PendingOperation) Elapsed() time.Duration {
	if op.state.Load() != stateResolved {
		return time.Since(op.submittedAt)
	}
	return op.resolvedAt.Sub(op.submittedAt)
}
