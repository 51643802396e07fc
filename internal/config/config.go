package config

import (
	"context"
	_ "embed"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clinia/topicbridge/configx"
	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/httpx"
	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/otelx"
	"github.com/clinia/topicbridge/pubsubx"
	"github.com/clinia/topicbridge/topicapi"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
)

const (
	EnvPrefix   = "TOPICBRIDGE_"
	ServiceName = "topicbridge"

	KeyLogLevel                   = "log.level"
	KeyLogFormat                  = "log.format"
	KeyServeAddress               = "serve.address"
	KeyServeCORSAllowedOrigins    = "serve.cors.allowed_origins"
	KeyBridgeTimeout              = "bridge.timeout"
	KeyPubSub                     = "pubsub"
	KeyPubSubProvider             = "pubsub.provider"
	KeyKafkaBrokers               = "pubsub.providers.kafka.brokers"
	KeyKafkaClientID              = "pubsub.providers.kafka.client_id"
	KeyTopicDefaultPartitions     = "topics.defaults.partitions"
	KeyTopicDefaultReplication    = "topics.defaults.replication_factor"
	KeyTopicDefaultMaxMessageSize = "topics.defaults.max_message_bytes"
	KeyTopicDefaultRetention      = "topics.defaults.retention"
	KeyTracing                    = "tracing"
	KeyMetrics                    = "metrics"

	DefaultBridgeTimeout = 30 * time.Second
)

//go:embed config.schema.json
var Schema []byte

var defaults = map[string]interface{}{
	KeyLogLevel:            "info",
	KeyLogFormat:           "json",
	KeyServeAddress:        ":8080",
	KeyBridgeTimeout:       DefaultBridgeTimeout.String(),
	KeyPubSubProvider:      "kafka",
	KeyKafkaClientID:       ServiceName,
	"tracing.service_name": ServiceName,
	"tracing.name":         ServiceName,
	"tracing.propagators":  []interface{}{"tracecontext", "baggage"},
	"tracing.providers.otlp.sampling.sampling_ratio": 1.0,
	"metrics.service_name":                           ServiceName,
	"metrics.name":                                   ServiceName,
	"metrics.provider":                               "prometheus",
}

// Config is the typed view of the service configuration.
type Config struct {
	p     atomic.Pointer[configx.Provider]
	level *slog.LevelVar
}

// New loads the configuration from the defaults, the given sources and TOPICBRIDGE_ environment variables.
// Changes of log.level in a watched file are applied to LevelVar without a restart.
func New(ctx context.Context, modifiers ...configx.OptionModifier) (*Config, error) {
	c := &Config{level: new(slog.LevelVar)}

	modifiers = append([]configx.OptionModifier{
		configx.WithBaseValues(defaults),
		configx.WithEnvPrefix(EnvPrefix),
		configx.WithImmutables(KeyServeAddress, KeyPubSub),
		configx.AttachWatcher(c.onChange),
	}, modifiers...)

	p, err := configx.New(ctx, Schema, modifiers...)
	if err != nil {
		return nil, err
	}
	c.p.Store(p)

	if err := loggerx.SetLevel(c.level, p.String(KeyLogLevel)); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) onChange(_ string, err error) {
	p := c.p.Load()
	if err != nil || p == nil {
		return
	}
	_ = loggerx.SetLevel(c.level, p.String(KeyLogLevel))
}

// Provider exposes the raw configuration.
func (c *Config) Provider() *configx.Provider {
	return c.p.Load()
}

// LevelVar holds the current log level.
func (c *Config) LevelVar() *slog.LevelVar {
	return c.level
}

func (c *Config) Log() *loggerx.Config {
	p := c.p.Load()
	return &loggerx.Config{
		Level:  p.String(KeyLogLevel),
		Format: p.String(KeyLogFormat),
	}
}

func (c *Config) ServeAddress() string {
	return c.p.Load().String(KeyServeAddress)
}

func (c *Config) CORS() httpx.CORSConfig {
	return httpx.CORSConfig{AllowedOrigins: c.p.Load().Strings(KeyServeCORSAllowedOrigins)}
}

func (c *Config) BridgeTimeout() time.Duration {
	return c.p.Load().DurationF(KeyBridgeTimeout, DefaultBridgeTimeout)
}

func (c *Config) PubSub() (*pubsubx.Config, error) {
	conf := &pubsubx.Config{}
	if err := c.p.Load().Unmarshal(KeyPubSub, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// TopicDefaults returns the partitions and replication factor applied to create requests that have none.
func (c *Config) TopicDefaults() topicapi.TopicDefaults {
	p := c.p.Load()
	d := topicapi.TopicDefaults{}
	if p.Exists(KeyTopicDefaultPartitions) {
		d.Partitions = lo.ToPtr(cast.ToInt32(p.Get(KeyTopicDefaultPartitions)))
	}
	if p.Exists(KeyTopicDefaultReplication) {
		d.ReplicationFactor = lo.ToPtr(cast.ToInt16(p.Get(KeyTopicDefaultReplication)))
	}
	return d
}

// TopicConfigEntries returns the broker config entries every created topic starts from.
func (c *Config) TopicConfigEntries() (map[string]*string, error) {
	p := c.p.Load()
	maxMessageBytes, err := p.ByteSize(KeyTopicDefaultMaxMessageSize)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("invalid topic defaults: %s", err.Error())
	}

	var retentionMs int64
	if p.Exists(KeyTopicDefaultRetention) {
		if raw := p.String(KeyTopicDefaultRetention); raw == "-1" {
			retentionMs = -1
		} else {
			retentionMs = p.Duration(KeyTopicDefaultRetention).Milliseconds()
		}
	}

	return pubsubx.NewCreateTopicConfigEntries(maxMessageBytes, retentionMs), nil
}

func (c *Config) Tracer() (*otelx.TracerConfig, error) {
	conf := &otelx.TracerConfig{}
	if err := c.p.Load().Unmarshal(KeyTracing, conf); err != nil {
		return nil, err
	}
	conf.ResourceAttributes = c.resourceAttributes()
	return conf, nil
}

func (c *Config) Meter() (*otelx.MeterConfig, error) {
	conf := &otelx.MeterConfig{}
	if err := c.p.Load().Unmarshal(KeyMetrics, conf); err != nil {
		return nil, err
	}
	conf.ResourceAttributes = c.resourceAttributes()
	return conf, nil
}

func (c *Config) resourceAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pubsub.provider", c.p.Load().String(KeyPubSubProvider)),
	}
}
