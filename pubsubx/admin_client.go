package pubsubx

import (
	"context"

	"github.com/twmb/franz-go/pkg/kadm"
)

type PubSubAdminClient interface {
	// CreateTopic creates a topic with the given configuration.
	// The default configuration entries are set by default, but they can be overridden by the given configs.
	// A partition count or replication factor of -1 uses the broker default.
	CreateTopic(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error)
	// DeleteTopic deletes a topic.
	DeleteTopic(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error)
	// ListTopics returns the details of the given topics.
	// If no topics are provided, it returns the details of all topics, internal ones included.
	ListTopics(ctx context.Context, topics ...string) (kadm.TopicDetails, error)
	// HealthCheck returns an error when the cluster cannot be reached.
	HealthCheck(ctx context.Context) error

	Close()
}
