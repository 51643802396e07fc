package bridge

import (
	"context"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/clinia/topicbridge/errorx"
	loggerxtest "github.com/clinia/topicbridge/loggerx/test"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const testTimeout = 5 * time.Second

func newTestBridge(t *testing.T, client *stubAdminClient, opts ...Option) (*Bridge, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	opts = append([]Option{
		WithLogger(loggerxtest.NewTestLogger(t)),
		WithMeterProvider(mp),
	}, opts...)

	b, err := New(client, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = b.Close(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	return b, reader
}

func awaitOutcome(t *testing.T, op *PendingOperation) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o, err := op.Await(ctx)
	require.NoError(t, err)
	return o
}

func sumInt64(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestNew(t *testing.T) {
	t.Run("should require an admin client", func(t *testing.T) {
		_, err := New(nil)
		assert.True(t, errorx.IsFailedPreconditionError(err))
	})

	t.Run("should use the default timeout", func(t *testing.T) {
		b, _ := newTestBridge(t, &stubAdminClient{})
		assert.Equal(t, DefaultTimeout, b.DefaultTimeout())

		b, _ = newTestBridge(t, &stubAdminClient{}, WithDefaultTimeout(time.Second), WithDefaultTimeout(-1))
		assert.Equal(t, time.Second, b.DefaultTimeout())
	})
}

func TestBridge_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve a valid create topic request with success", func(t *testing.T) {
		var gotPartitions int32
		var gotReplicationFactor int16
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				gotPartitions, gotReplicationFactor = partitions, replicationFactor
				assert.Empty(t, configs)
				return kadm.CreateTopicResponse{Topic: topic}, nil
			},
		}
		b, reader := newTestBridge(t, client)

		op := b.Submit(ctx, CreateTopic{Name: "orders"}, testTimeout)
		o := awaitOutcome(t, op)

		assert.True(t, o.IsSuccess())
		assert.Nil(t, o.Value)
		assert.NoError(t, o.Err())
		assert.Equal(t, int32(-1), gotPartitions)
		assert.Equal(t, int16(-1), gotReplicationFactor)
		assert.Equal(t, int32(1), client.calls.Load())

		assert.Eventually(t, func() bool { return b.InFlight() == 0 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, int64(1), sumInt64(t, reader, "topicbridge.operations"))
	})

	t.Run("should forward partitions, replication factor and configs", func(t *testing.T) {
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				assert.Equal(t, int32(3), partitions)
				assert.Equal(t, int16(2), replicationFactor)
				require.Len(t, configs, 1)
				assert.Equal(t, "compact", *configs[0]["cleanup.policy"])
				return kadm.CreateTopicResponse{Topic: topic}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		o := awaitOutcome(t, b.Submit(ctx, CreateTopic{
			Name:              "orders",
			Partitions:        lo.ToPtr(int32(3)),
			ReplicationFactor: lo.ToPtr(int16(2)),
			Configs:           map[string]*string{"cleanup.policy": lo.ToPtr("compact")},
		}, testTimeout))
		assert.True(t, o.IsSuccess())
	})

	t.Run("should succeed at the time the broker answers", func(t *testing.T) {
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				time.Sleep(100 * time.Millisecond)
				return kadm.CreateTopicResponse{Topic: topic}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		op := b.Submit(ctx, CreateTopic{Name: "orders"}, 5*time.Second)
		o := awaitOutcome(t, op)

		assert.True(t, o.IsSuccess())
		assert.GreaterOrEqual(t, op.Elapsed(), 100*time.Millisecond)
		assert.Less(t, op.Elapsed(), time.Second)
	})

	t.Run("should return the listed topics", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return kadm.TopicDetails{
					"orders": {
						Topic: "orders",
						Partitions: kadm.PartitionDetails{
							0: {Topic: "orders", Partition: 0, Replicas: []int32{1, 2, 3}},
							1: {Topic: "orders", Partition: 1, Replicas: []int32{1, 2, 3}},
						},
					},
				}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		o := awaitOutcome(t, b.Submit(ctx, ListTopics{}, 5*time.Second))

		require.True(t, o.IsSuccess())
		topics, ok := o.Value.(Topics)
		require.True(t, ok)
		assert.Equal(t, []string{"orders"}, topics.Names())
		assert.Equal(t, "orders", topics["orders"].Name)
		assert.Equal(t, 2, topics["orders"].Partitions)
		assert.Equal(t, 3, topics["orders"].ReplicationFactor)
		assert.False(t, topics["orders"].Internal)
	})

	t.Run("should classify already existing topics", func(t *testing.T) {
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				return kadm.CreateTopicResponse{Topic: topic, Err: kerr.TopicAlreadyExists}, kerr.TopicAlreadyExists
			},
		}
		b, _ := newTestBridge(t, client)

		o := awaitOutcome(t, b.Submit(ctx, CreateTopic{Name: "orders"}, 5*time.Second))

		require.False(t, o.IsSuccess())
		assert.Equal(t, errorx.ErrorTypeAlreadyExists, o.Failure.Type)
		assert.Contains(t, o.Failure.Message, "already exists")
		assert.ErrorIs(t, o.Err(), kerr.TopicAlreadyExists)
	})

	t.Run("should time out when the broker never answers", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return nil, blockUntilDone(ctx)
			},
		}
		b, reader := newTestBridge(t, client)

		timeout := time.Second
		op := b.Submit(ctx, ListTopics{}, timeout)
		o := awaitOutcome(t, op)

		require.False(t, o.IsSuccess())
		assert.Equal(t, errorx.ErrorTypeDeadlineExceeded, o.Failure.Type)
		assert.Equal(t, "operation exceeded deadline", o.Failure.Message)
		assert.GreaterOrEqual(t, op.Elapsed(), timeout)
		assert.Less(t, op.Elapsed(), timeout+500*time.Millisecond)

		// The broker call is cancelled and its answer discarded.
		assert.Eventually(t, func() bool {
			return sumInt64(t, reader, "topicbridge.late_responses") == 1
		}, time.Second, 10*time.Millisecond)
		after, ok := op.Outcome()
		require.True(t, ok)
		assert.Equal(t, o, after)
	})

	t.Run("should resolve exactly once when a late success follows a timeout", func(t *testing.T) {
		release := make(chan struct{})
		answered := make(chan struct{})
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				defer close(answered)
				<-release
				return kadm.CreateTopicResponse{Topic: topic}, nil
			},
		}
		b, reader := newTestBridge(t, client)

		op := b.Submit(ctx, CreateTopic{Name: "orders"}, 50*time.Millisecond)
		o := awaitOutcome(t, op)
		require.Equal(t, errorx.ErrorTypeDeadlineExceeded, o.Failure.Type)

		close(release)
		<-answered

		assert.Eventually(t, func() bool {
			return sumInt64(t, reader, "topicbridge.late_responses") == 1
		}, time.Second, 10*time.Millisecond)

		after, ok := op.Outcome()
		require.True(t, ok)
		assert.Equal(t, errorx.ErrorTypeDeadlineExceeded, after.Failure.Type)
		assert.Equal(t, int64(1), sumInt64(t, reader, "topicbridge.operations"))
	})

	t.Run("should use the default timeout for non positive timeouts", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return nil, blockUntilDone(ctx)
			},
		}
		b, _ := newTestBridge(t, client, WithDefaultTimeout(50*time.Millisecond))

		op := b.Submit(ctx, ListTopics{}, 0)
		o := awaitOutcome(t, op)

		assert.Equal(t, errorx.ErrorTypeDeadlineExceeded, o.Failure.Type)
		assert.GreaterOrEqual(t, op.Elapsed(), 50*time.Millisecond)
	})

	t.Run("should resolve invalid requests without calling the broker", func(t *testing.T) {
		client := &stubAdminClient{}
		b, _ := newTestBridge(t, client)

		for _, req := range []Request{
			CreateTopic{},
			CreateTopic{Name: "orders", Partitions: lo.ToPtr(int32(0))},
			DeleteTopic{Name: "bad name"},
			nil,
		} {
			op := b.Submit(ctx, req, testTimeout)
			o, ok := op.Outcome()
			require.True(t, ok, "invalid requests resolve before Submit returns")
			assert.Equal(t, errorx.ErrorTypeInvalidArgument, o.Failure.Type)
		}
		assert.Equal(t, int32(0), client.calls.Load())
		assert.Equal(t, 0, b.InFlight())
	})

	t.Run("should resolve as a timeout when the caller cancels", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return nil, blockUntilDone(ctx)
			},
		}
		b, _ := newTestBridge(t, client)

		cctx, cancel := context.WithCancel(ctx)
		op := b.Submit(cctx, ListTopics{}, testTimeout)
		cancel()
		o := awaitOutcome(t, op)

		assert.Equal(t, errorx.ErrorTypeDeadlineExceeded, o.Failure.Type)
		assert.Equal(t, "operation cancelled", o.Failure.Message)
		assert.Less(t, op.Elapsed(), testTimeout)
	})

	t.Run("should turn admin client panics into internal failures", func(t *testing.T) {
		client := &stubAdminClient{
			deleteTopic: func(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error) {
				panic("boom")
			},
		}
		b, _ := newTestBridge(t, client)

		o := awaitOutcome(t, b.Submit(ctx, DeleteTopic{Name: "orders"}, testTimeout))

		assert.Equal(t, errorx.ErrorTypeInternal, o.Failure.Type)
		assert.Contains(t, o.Failure.Message, "boom")
	})

	t.Run("should not block the caller", func(t *testing.T) {
		release := make(chan struct{})
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				<-release
				return kadm.TopicDetails{}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		op := b.Submit(ctx, ListTopics{}, testTimeout)
		_, ok := op.Outcome()
		assert.False(t, ok)
		assert.Equal(t, 1, b.InFlight())
		assert.True(t, op.ResolvedAt().IsZero())

		close(release)
		o := awaitOutcome(t, op)
		assert.True(t, o.IsSuccess())
		assert.False(t, op.ResolvedAt().IsZero())
	})

	t.Run("should run concurrent submissions independently", func(t *testing.T) {
		client := &stubAdminClient{
			createTopic: func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
				if topic == "existing" {
					return kadm.CreateTopicResponse{}, kerr.TopicAlreadyExists
				}
				return kadm.CreateTopicResponse{Topic: topic}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		var wg sync.WaitGroup
		outcomes := make([]Outcome, 50)
		for i := range outcomes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				name := "orders"
				if i%2 == 0 {
					name = "existing"
				}
				outcomes[i] = awaitOutcome(t, b.Submit(ctx, CreateTopic{Name: name}, testTimeout))
			}()
		}
		wg.Wait()

		for i, o := range outcomes {
			if i%2 == 0 {
				assert.Equal(t, errorx.ErrorTypeAlreadyExists, o.Failure.Type)
			} else {
				assert.True(t, o.IsSuccess())
			}
		}
	})
}

func TestBridge_Helpers(t *testing.T) {
	ctx := context.Background()

	t.Run("should create, list and delete topics", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return kadm.TopicDetails{"orders": {Topic: "orders", Partitions: kadm.PartitionDetails{0: {}}}}, nil
			},
		}
		b, _ := newTestBridge(t, client)

		require.NoError(t, b.CreateTopic(ctx, CreateTopic{Name: "orders"}, testTimeout))

		topics, err := b.ListTopics(ctx, testTimeout)
		require.NoError(t, err)
		assert.Contains(t, topics, "orders")

		require.NoError(t, b.DeleteTopic(ctx, "orders", testTimeout))
	})

	t.Run("should return classified errors", func(t *testing.T) {
		client := &stubAdminClient{
			deleteTopic: func(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error) {
				return kadm.DeleteTopicResponse{}, kerr.UnknownTopicOrPartition
			},
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return nil, kerr.BrokerNotAvailable
			},
		}
		b, _ := newTestBridge(t, client)

		err := b.DeleteTopic(ctx, "orders", testTimeout)
		assert.True(t, errorx.IsNotFoundError(err))

		_, err = b.ListTopics(ctx, testTimeout)
		assert.True(t, errorx.IsUnavailableError(err))
	})

	t.Run("should report the broker health", func(t *testing.T) {
		client := &stubAdminClient{
			healthCheck: func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
			},
		}
		b, _ := newTestBridge(t, client)

		err := b.HealthCheck(ctx, time.Second)
		assert.True(t, errorx.IsUnavailableError(err))

		client.healthCheck = nil
		assert.NoError(t, b.HealthCheck(ctx, 0))
	})
}

func TestBridge_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve pending operations as unavailable", func(t *testing.T) {
		client := &stubAdminClient{
			listTopics: func(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
				return nil, blockUntilDone(ctx)
			},
		}
		b, _ := newTestBridge(t, client)

		ops := make([]*PendingOperation, 5)
		for i := range ops {
			ops[i] = b.Submit(ctx, ListTopics{}, testTimeout)
		}

		require.NoError(t, b.Close(ctx))
		require.NoError(t, b.Close(ctx))

		for _, op := range ops {
			o := awaitOutcome(t, op)
			assert.Equal(t, errorx.ErrorTypeUnavailable, o.Failure.Type)
			assert.Equal(t, "bridge is closed", o.Failure.Message)
		}
		assert.True(t, client.closed.Load())
		assert.Eventually(t, func() bool { return b.InFlight() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("should reject submissions once closed", func(t *testing.T) {
		client := &stubAdminClient{}
		b, _ := newTestBridge(t, client)
		require.NoError(t, b.Close(ctx))

		op := b.Submit(ctx, CreateTopic{Name: "orders"}, testTimeout)
		o, ok := op.Outcome()
		require.True(t, ok)
		assert.Equal(t, errorx.ErrorTypeUnavailable, o.Failure.Type)
		assert.Equal(t, int32(0), client.calls.Load())

		assert.True(t, errorx.IsUnavailableError(b.HealthCheck(ctx, time.Second)))
	})
}
