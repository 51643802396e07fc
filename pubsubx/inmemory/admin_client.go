package inmemorypubsub

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/clinia/topicbridge/pubsubx"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

// AdminClient keeps topics in memory and answers with the errors a broker would send.
type AdminClient struct {
	mu      sync.RWMutex
	topics  kadm.TopicDetails
	configs map[string]map[string]*string
	closed  bool

	defaultCreateTopicConfigEntries map[string]*string
}

var _ pubsubx.PubSubAdminClient = (*AdminClient)(nil)

func NewAdminClient(opts *pubsubx.PubSubOptions) *AdminClient {
	c := &AdminClient{
		topics:  make(kadm.TopicDetails),
		configs: make(map[string]map[string]*string),
	}
	if opts != nil {
		c.defaultCreateTopicConfigEntries = opts.DefaultCreateTopicConfigEntries
	}
	return c
}

// Close implements pubsubx.PubSubAdminClient.
func (n *AdminClient) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

// CreateTopic implements pubsubx.PubSubAdminClient.
// Broker defaults (-1) become a single partition with a single replica.
func (n *AdminClient) CreateTopic(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
	if err := ctx.Err(); err != nil {
		return kadm.CreateTopicResponse{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return kadm.CreateTopicResponse{}, kerr.BrokerNotAvailable
	}

	if _, ok := n.topics[topic]; ok {
		return kadm.CreateTopicResponse{Topic: topic, Err: kerr.TopicAlreadyExists}, kerr.TopicAlreadyExists
	}

	if partitions == -1 {
		partitions = 1
	}
	if replicationFactor == -1 {
		replicationFactor = 1
	}
	if partitions < 1 {
		return kadm.CreateTopicResponse{Topic: topic, Err: kerr.InvalidPartitions}, kerr.InvalidPartitions
	}
	if replicationFactor < 1 {
		return kadm.CreateTopicResponse{Topic: topic, Err: kerr.InvalidReplicationFactor}, kerr.InvalidReplicationFactor
	}

	replicas := make([]int32, replicationFactor)
	for i := range replicas {
		replicas[i] = int32(i)
	}

	pDetails := kadm.PartitionDetails{}
	for i := range partitions {
		pDetails[i] = kadm.PartitionDetail{
			Topic:     topic,
			Partition: i,
			Replicas:  replicas,
			ISR:       replicas,
		}
	}

	id := kadm.TopicID(uuid.New())
	n.topics[topic] = kadm.TopicDetail{
		Topic:      topic,
		ID:         id,
		IsInternal: strings.HasPrefix(topic, "__"),
		Partitions: pDetails,
	}
	n.configs[topic] = lo.Assign(append([]map[string]*string{n.defaultCreateTopicConfigEntries}, configs...)...)

	return kadm.CreateTopicResponse{
		Topic:             topic,
		ID:                id,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}, nil
}

// DeleteTopic implements pubsubx.PubSubAdminClient.
func (n *AdminClient) DeleteTopic(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error) {
	if err := ctx.Err(); err != nil {
		return kadm.DeleteTopicResponse{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return kadm.DeleteTopicResponse{}, kerr.BrokerNotAvailable
	}

	d, ok := n.topics[topic]
	if !ok {
		return kadm.DeleteTopicResponse{Topic: topic, Err: kerr.UnknownTopicOrPartition}, kerr.UnknownTopicOrPartition
	}

	delete(n.topics, topic)
	delete(n.configs, topic)
	return kadm.DeleteTopicResponse{
		Topic: topic,
		ID:    d.ID,
	}, nil
}

// ListTopics implements pubsubx.PubSubAdminClient.
// The returned details are a snapshot, later changes are not reflected.
func (n *AdminClient) ListTopics(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return nil, kerr.BrokerNotAvailable
	}

	res := make(kadm.TopicDetails, len(n.topics))
	if len(topics) == 0 {
		for name, d := range n.topics {
			res[name] = d
		}
		return res, nil
	}

	for _, name := range topics {
		d, ok := n.topics[name]
		if !ok {
			return nil, kerr.UnknownTopicOrPartition
		}
		res[name] = d
	}
	return res, nil
}

// TopicConfigs returns the config entries the topic was created with.
func (n *AdminClient) TopicConfigs(topic string) (map[string]*string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.configs[topic]
	return c, ok
}

// Topics returns the sorted names of the existing topics.
func (n *AdminClient) Topics() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := lo.Keys(n.topics)
	sort.Strings(names)
	return names
}

// HealthCheck implements pubsubx.PubSubAdminClient.
func (n *AdminClient) HealthCheck(ctx context.Context) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return kerr.BrokerNotAvailable
	}
	return ctx.Err()
}
