package bridge

import (
	"fmt"

	"github.com/clinia/topicbridge/errorx"
)

const (
	OperationCreateTopic = "CreateTopic"
	OperationListTopics  = "ListTopics"
	OperationDeleteTopic = "DeleteTopic"

	// MaxTopicNameLength is the longest topic name a broker accepts.
	MaxTopicNameLength = 249
)

// Request is an administrative operation the bridge can submit.
// The set of requests is closed: CreateTopic, ListTopics and DeleteTopic.
type Request interface {
	Operation() string
	isRequest()
}

// CreateTopic creates a topic. Nil partitions or replication factor use the broker defaults.
type CreateTopic struct {
	Name              string
	Partitions        *int32
	ReplicationFactor *int16
	Configs           map[string]*string
}

// ListTopics lists every topic of the cluster, internal topics included.
type ListTopics struct{}

// DeleteTopic deletes a topic.
type DeleteTopic struct {
	Name string
}

var (
	_ Request = CreateTopic{}
	_ Request = ListTopics{}
	_ Request = DeleteTopic{}
)

func (CreateTopic) Operation() string { return OperationCreateTopic }
func (ListTopics) Operation() string  { return OperationListTopics }
func (DeleteTopic) Operation() string { return OperationDeleteTopic }

func (CreateTopic) isRequest() {}
func (ListTopics) isRequest()  {}
func (DeleteTopic) isRequest() {}

// ValidateRequest checks the invariants of req before it reaches the broker.
func ValidateRequest(req Request) *errorx.CliniaError {
	switch r := req.(type) {
	case CreateTopic:
		if err := ValidateTopicName(r.Name); err != nil {
			return err
		}
		if r.Partitions != nil && *r.Partitions < 1 {
			return errorx.InvalidArgumentErrorf("partitions must be at least 1, got %d", *r.Partitions)
		}
		if r.ReplicationFactor != nil && *r.ReplicationFactor < 1 {
			return errorx.InvalidArgumentErrorf("replication factor must be at least 1, got %d", *r.ReplicationFactor)
		}
		for k, v := range r.Configs {
			if k == "" {
				return errorx.InvalidArgumentErrorf("topic config keys cannot be empty")
			}
			if v == nil {
				return errorx.InvalidArgumentErrorf("topic config %q has no value", k)
			}
		}
		return nil
	case ListTopics:
		return nil
	case DeleteTopic:
		return ValidateTopicName(r.Name)
	case nil:
		return errorx.InvalidArgumentErrorf("request is required")
	default:
		return errorx.InvalidArgumentErrorf("unsupported request %s", fmt.Sprintf("%T", req))
	}
}

// ValidateTopicName applies the broker naming rules: 1 to 249 characters among [a-zA-Z0-9._-], not "." or "..".
func ValidateTopicName(name string) *errorx.CliniaError {
	switch {
	case name == "":
		return errorx.InvalidArgumentErrorf("topic name cannot be empty")
	case name == "." || name == "..":
		return errorx.InvalidArgumentErrorf("topic name cannot be %q", name)
	case len(name) > MaxTopicNameLength:
		return errorx.InvalidArgumentErrorf("topic name cannot be longer than %d characters", MaxTopicNameLength)
	}

	for _, c := range name {
		if !isLegalTopicChar(c) {
			return errorx.InvalidArgumentErrorf("topic name %q contains the illegal character %q, only [a-zA-Z0-9._-] are allowed", name, c)
		}
	}
	return nil
}

func isLegalTopicChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '_' || c == '-'
}
