package bridge

import (
	"context"
	"sync/atomic"

	"github.com/clinia/topicbridge/pubsubx"
	"github.com/twmb/franz-go/pkg/kadm"
)

type stubAdminClient struct {
	createTopic func(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error)
	deleteTopic func(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error)
	listTopics  func(ctx context.Context, topics ...string) (kadm.TopicDetails, error)
	healthCheck func(ctx context.Context) error

	calls  atomic.Int32
	closed atomic.Bool
}

var _ pubsubx.PubSubAdminClient = (*stubAdminClient)(nil)

func (s *stubAdminClient) CreateTopic(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
	s.calls.Add(1)
	if s.createTopic == nil {
		return kadm.CreateTopicResponse{Topic: topic, NumPartitions: partitions, ReplicationFactor: replicationFactor}, nil
	}
	return s.createTopic(ctx, partitions, replicationFactor, topic, configs...)
}

func (s *stubAdminClient) DeleteTopic(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error) {
	s.calls.Add(1)
	if s.deleteTopic == nil {
		return kadm.DeleteTopicResponse{Topic: topic}, nil
	}
	return s.deleteTopic(ctx, topic)
}

func (s *stubAdminClient) ListTopics(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
	s.calls.Add(1)
	if s.listTopics == nil {
		return kadm.TopicDetails{}, nil
	}
	return s.listTopics(ctx, topics...)
}

func (s *stubAdminClient) HealthCheck(ctx context.Context) error {
	if s.healthCheck == nil {
		return nil
	}
	return s.healthCheck(ctx)
}

func (s *stubAdminClient) Close() {
	s.closed.Store(true)
}

// blockUntilDone never answers before the bridge gives up on the call.
func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
