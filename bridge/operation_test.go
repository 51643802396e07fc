package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinia/topicbridge/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingOperation(t *testing.T) {
	t.Run("should keep the first outcome", func(t *testing.T) {
		op := newPendingOperation(ListTopics{})

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o := Success(i)
				if i%2 == 0 {
					o = Failure(errorx.DeadlineExceededErrorf("operation exceeded deadline"))
				}
				if op.resolve(o) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		first, ok := op.Outcome()
		require.True(t, ok)
		assert.False(t, op.resolve(Success("late")))
		again, _ := op.Outcome()
		assert.Equal(t, first, again)
	})

	t.Run("should expose its request and identity", func(t *testing.T) {
		op := newPendingOperation(DeleteTopic{Name: "orders"})
		other := newPendingOperation(DeleteTopic{Name: "orders"})

		assert.Equal(t, DeleteTopic{Name: "orders"}, op.Request())
		assert.NotEqual(t, op.ID(), other.ID())
		assert.False(t, op.SubmittedAt().IsZero())
	})

	t.Run("should stop waiting when the context is done", func(t *testing.T) {
		op := newPendingOperation(ListTopics{})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := op.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, ok := op.Outcome()
		assert.False(t, ok, "giving up waiting does not resolve the operation")
	})

	t.Run("should close done on resolution", func(t *testing.T) {
		op := newPendingOperation(ListTopics{})
		require.True(t, op.resolve(Success(Topics{})))

		select {
		case <-op.Done():
		default:
			t.Fatal("done should be closed")
		}
		assert.GreaterOrEqual(t, op.Elapsed(), time.Duration(0))
	})
}

func TestOutcome(t *testing.T) {
	assert.NoError(t, Success(nil).Err())
	assert.True(t, Success(nil).IsSuccess())

	f := Failure(nil)
	assert.False(t, f.IsSuccess())
	assert.Equal(t, errorx.ErrorTypeInternal, f.Failure.Type)

	assert.Equal(t, "success", outcomeLabel(Success(nil)))
	assert.Equal(t, "ALREADY_EXISTS", outcomeLabel(Failure(errorx.AlreadyExistsErrorf("exists"))))
}
