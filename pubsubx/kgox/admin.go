package kgox

import (
	"context"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel/attribute"
)

// AdminClient owns the kgo client backing the admin client and closes it on Close.
type AdminClient struct {
	*KgoxAdminClient
	client *kgo.Client
}

var _ pubsubx.PubSubAdminClient = (*AdminClient)(nil)

// NewAdminClient connects a kgo client to the configured seed brokers.
// The client logs through l and is instrumented with the tracer and meter providers found in opts.
func NewAdminClient(l *loggerx.Logger, config *pubsubx.Config, opts *pubsubx.PubSubOptions) (*AdminClient, error) {
	if l == nil {
		return nil, errorx.FailedPreconditionErrorf("logger is required")
	}

	if config.Provider != "kafka" {
		return nil, errorx.FailedPreconditionErrorf("unsupported provider %s", config.Provider)
	}

	if len(config.Providers.Kafka.Brokers) == 0 {
		return nil, errorx.InvalidArgumentErrorf("at least one kafka broker is required")
	}

	kopts := append(ClientOptions(config), kgo.WithLogger(kslog.New(l.Logger)))

	var defaultCreateTopicConfigEntries map[string]*string
	if opts != nil {
		if opts.TracerProvider != nil || opts.MeterProvider != nil {
			kotelService := newKotel(opts.TracerProvider, opts.Propagator, opts.MeterProvider)
			kopts = append(kopts, kgo.WithHooks(kotelService.Hooks()...))
		}
		defaultCreateTopicConfigEntries = opts.DefaultCreateTopicConfigEntries
	}

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, errorx.InternalErrorf("failed to create kafka client: %v", err)
	}

	l.Info(context.Background(), "Kafka admin client configured", attribute.StringSlice("brokers", config.Providers.Kafka.Brokers))

	return &AdminClient{
		KgoxAdminClient: NewPubSubAdminClient(kadm.NewClient(cl), defaultCreateTopicConfigEntries),
		client:          cl,
	}, nil
}

// Close implements pubsubx.PubSubAdminClient.
// Subtle: this method shadows the method (*Client).Close of the embedded kadm client.
func (a *AdminClient) Close() {
	a.client.Close()
}
