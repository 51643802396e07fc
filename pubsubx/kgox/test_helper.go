package kgox

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/clinia/topicbridge/pubsubx"
	"github.com/segmentio/ksuid"
)

// getPubsubConfig returns a config pointing to the brokers listed in the KAFKA env var.
// Tests needing a cluster are skipped when it is not set.
func getPubsubConfig(t *testing.T) *pubsubx.Config {
	t.Helper()
	kafkaURLsFromEnv := os.Getenv("KAFKA")
	if len(kafkaURLsFromEnv) == 0 {
		t.Skip("KAFKA is not set, skipping test requiring a kafka cluster")
	}

	return &pubsubx.Config{
		Provider: "kafka",
		Providers: pubsubx.ProvidersConfig{
			Kafka: pubsubx.KafkaConfig{
				Brokers:  strings.Split(kafkaURLsFromEnv, ","),
				ClientID: "topicbridge-test",
			},
		},
	}
}

func getRandomTopic(t *testing.T) string {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "-")
	if len(name) > 8 {
		name = name[:8]
	}
	return fmt.Sprintf("%s-%s", name, ksuid.New().String())
}
