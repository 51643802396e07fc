package kgox

import (
	"context"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/samber/lo"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

type KgoxAdminClient struct {
	*kadm.Client
	defaultCreateTopicConfigEntries map[string]*string
}

var _ pubsubx.PubSubAdminClient = (*KgoxAdminClient)(nil)

func NewPubSubAdminClient(cl *kadm.Client, defaultCreateTopicConfigEntries map[string]*string) *KgoxAdminClient {
	return &KgoxAdminClient{cl, defaultCreateTopicConfigEntries}
}

// CreateTopic implements PubSubAdminClient.
// Subtle: this method shadows the method (*Client).CreateTopic of pubsubAdminClient.Client.
func (p *KgoxAdminClient) CreateTopic(ctx context.Context, partitions int32, replicationFactor int16, topic string, configs ...map[string]*string) (kadm.CreateTopicResponse, error) {
	configMaps := append([]map[string]*string{p.defaultCreateTopicConfigEntries}, configs...)
	configMaps = lo.Filter(configMaps, func(m map[string]*string, i int) bool {
		return m != nil
	})
	conf := lo.Assign(configMaps...)
	resp, err := p.Client.CreateTopic(ctx, partitions, replicationFactor, conf, topic)
	if err != nil {
		return resp, err
	}
	return resp, resp.Err
}

// DeleteTopic implements PubSubAdminClient.
// Subtle: this method shadows the method (*Client).DeleteTopic of pubsubAdminClient.Client.
func (p *KgoxAdminClient) DeleteTopic(ctx context.Context, topic string) (kadm.DeleteTopicResponse, error) {
	resp, err := p.Client.DeleteTopic(ctx, topic)
	if err != nil {
		return resp, err
	}
	return resp, resp.Err
}

// ListTopics implements PubSubAdminClient. Internal topics are included.
// Subtle: this method shadows the method (*Client).ListTopics of pubsubAdminClient.Client.
func (p *KgoxAdminClient) ListTopics(ctx context.Context, topics ...string) (kadm.TopicDetails, error) {
	details, err := p.Client.ListTopicsWithInternal(ctx, topics...)
	if err != nil {
		return nil, err
	}
	// Asking for specific topics surfaces their errors, a full listing only reports what exists.
	if len(topics) > 0 {
		if err := details.Error(); err != nil {
			return details, err
		}
	}
	return details, nil
}

// HealthCheck implements pubsubx.PubSubAdminClient.
func (p *KgoxAdminClient) HealthCheck(ctx context.Context) error {
	brokers, err := p.ListBrokers(ctx)
	if err != nil {
		return errorx.UnavailableErrorf("failed to connect to pubsub: %v", err)
	}
	if len(brokers) == 0 {
		return errorx.UnavailableErrorf("failed to connect to pubsub: no broker available")
	}

	return nil
}

// ClientOptions returns the kgo options shared by every client built for config.
func ClientOptions(config *pubsubx.Config) []kgo.Opt {
	kopts := []kgo.Opt{
		kgo.SeedBrokers(config.Providers.Kafka.Brokers...),
	}
	if config.Providers.Kafka.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(config.Providers.Kafka.ClientID))
	}
	return kopts
}
