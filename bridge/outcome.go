package bridge

import (
	"sort"

	"github.com/clinia/topicbridge/errorx"
	"github.com/samber/lo"
	"github.com/twmb/franz-go/pkg/kadm"
)

// Outcome is the resolved result of an operation: a value on success, a classified failure otherwise.
type Outcome struct {
	// Value is nil for CreateTopic and DeleteTopic, Topics for ListTopics.
	Value   any
	Failure *errorx.CliniaError
}

func Success(value any) Outcome {
	return Outcome{Value: value}
}

func Failure(err *errorx.CliniaError) Outcome {
	if err == nil {
		err = errorx.InternalErrorf("operation failed without an error")
	}
	return Outcome{Failure: err}
}

func (o Outcome) IsSuccess() bool {
	return o.Failure == nil
}

// Err returns the failure as an error, nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Topics maps topic names to their metadata.
type Topics map[string]TopicMetadata

// TopicMetadata is a read-only projection of the broker state of a topic.
type TopicMetadata struct {
	Name              string `json:"name"`
	ID                string `json:"topic_id"`
	Partitions        int    `json:"partitions"`
	ReplicationFactor int    `json:"replication_factor"`
	Internal          bool   `json:"internal"`
}

// NewTopics projects kadm topic details. Details carrying a per-topic error are skipped.
func NewTopics(details kadm.TopicDetails) Topics {
	topics := make(Topics, len(details))
	for name, d := range details {
		if d.Err != nil {
			continue
		}
		topics[name] = NewTopicMetadata(d)
	}
	return topics
}

func NewTopicMetadata(d kadm.TopicDetail) TopicMetadata {
	replicationFactor := 0
	for _, p := range d.Partitions {
		replicationFactor = max(replicationFactor, len(p.Replicas))
	}

	return TopicMetadata{
		Name:              d.Topic,
		ID:                d.ID.String(),
		Partitions:        len(d.Partitions),
		ReplicationFactor: replicationFactor,
		Internal:          d.IsInternal,
	}
}

// WithoutInternal drops the broker's internal topics.
func (t Topics) WithoutInternal() Topics {
	return lo.OmitBy(t, func(_ string, m TopicMetadata) bool { return m.Internal })
}

// Names returns the sorted topic names.
func (t Topics) Names() []string {
	names := lo.Keys(t)
	sort.Strings(names)
	return names
}
