package pubsubx

import (
	_ "embed"
	"strconv"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Provider  string          `json:"provider"`
	Providers ProvidersConfig `json:"providers"`
}

type ProvidersConfig struct {
	InMemory InMemoryConfig `json:"inmemory"`
	Kafka    KafkaConfig    `json:"kafka"`
}

type InMemoryConfig struct{}

type KafkaConfig struct {
	Brokers  []string `json:"brokers"`
	ClientID string   `json:"client_id"`
}

type PubSubOptions struct {
	TracerProvider                  trace.TracerProvider
	Propagator                      propagation.TextMapPropagator
	MeterProvider                   metric.MeterProvider
	DefaultCreateTopicConfigEntries map[string]*string
}

type PubSubOption func(*PubSubOptions)

// NewPubSubOptions applies opts over empty options.
func NewPubSubOptions(opts ...PubSubOption) *PubSubOptions {
	o := &PubSubOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// The telemetry options ignore nil values.

func WithTracerProvider(tp trace.TracerProvider) PubSubOption {
	return func(o *PubSubOptions) {
		if tp != nil {
			o.TracerProvider = tp
		}
	}
}

func WithPropagator(p propagation.TextMapPropagator) PubSubOption {
	return func(o *PubSubOptions) {
		if p != nil {
			o.Propagator = p
		}
	}
}

func WithMeterProvider(mp metric.MeterProvider) PubSubOption {
	return func(o *PubSubOptions) {
		if mp != nil {
			o.MeterProvider = mp
		}
	}
}

func WithDefaultCreateTopicConfigEntries(entries map[string]*string) PubSubOption {
	return func(opts *PubSubOptions) {
		opts.DefaultCreateTopicConfigEntries = lo.Assign(opts.DefaultCreateTopicConfigEntries, entries)
	}
}

// NewCreateTopicConfigEntries builds topic config entries from the service defaults.
// Zero values are left to the broker.
func NewCreateTopicConfigEntries(maxMessageBytes bytesize.ByteSize, retentionMs int64) map[string]*string {
	entries := map[string]*string{}
	if maxMessageBytes > 0 {
		entries["max.message.bytes"] = lo.ToPtr(strconv.FormatUint(uint64(maxMessageBytes), 10))
	}
	if retentionMs != 0 {
		entries["retention.ms"] = lo.ToPtr(strconv.FormatInt(retentionMs, 10))
	}
	return entries
}

// ConfigSchema validates Config. configx registers it under ConfigSchemaID.
//
//go:embed config.schema.json
var ConfigSchema string

const ConfigSchemaID = "clinia://pubsub-config"
