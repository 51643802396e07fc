package pubsubx

import (
	"testing"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestNewCreateTopicConfigEntries(t *testing.T) {
	t.Run("should render sizes in bytes", func(t *testing.T) {
		entries := NewCreateTopicConfigEntries(10*bytesize.MB, 604800000)
		assert.Equal(t, map[string]*string{
			"max.message.bytes": lo.ToPtr("10485760"),
			"retention.ms":      lo.ToPtr("604800000"),
		}, entries)
	})

	t.Run("should leave zero values to the broker", func(t *testing.T) {
		assert.Empty(t, NewCreateTopicConfigEntries(0, 0))
	})

	t.Run("should keep infinite retention", func(t *testing.T) {
		entries := NewCreateTopicConfigEntries(0, -1)
		assert.Equal(t, map[string]*string{"retention.ms": lo.ToPtr("-1")}, entries)
	})
}

func TestWithDefaultCreateTopicConfigEntries(t *testing.T) {
	o := NewPubSubOptions(
		WithDefaultCreateTopicConfigEntries(map[string]*string{"retention.ms": lo.ToPtr("1")}),
		WithDefaultCreateTopicConfigEntries(map[string]*string{"retention.ms": lo.ToPtr("2"), "cleanup.policy": lo.ToPtr("compact")}),
		WithTracerProvider(nil),
	)

	assert.Nil(t, o.TracerProvider)
	assert.Equal(t, "2", *o.DefaultCreateTopicConfigEntries["retention.ms"])
	assert.Equal(t, "compact", *o.DefaultCreateTopicConfigEntries["cleanup.policy"])
}
