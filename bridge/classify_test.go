package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/clinia/topicbridge/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		name     string
		err      error
		expected errorx.ErrorType
	}{
		{"topic already exists", kerr.TopicAlreadyExists, errorx.ErrorTypeAlreadyExists},
		{"wrapped topic already exists", fmt.Errorf("create: %w", kerr.TopicAlreadyExists), errorx.ErrorTypeAlreadyExists},
		{"unknown topic", kerr.UnknownTopicOrPartition, errorx.ErrorTypeNotFound},
		{"unknown topic id", kerr.UnknownTopicID, errorx.ErrorTypeNotFound},
		{"invalid topic", kerr.InvalidTopicException, errorx.ErrorTypeInvalidArgument},
		{"invalid partitions", kerr.InvalidPartitions, errorx.ErrorTypeInvalidArgument},
		{"invalid replication factor", kerr.InvalidReplicationFactor, errorx.ErrorTypeInvalidArgument},
		{"invalid config", kerr.InvalidConfig, errorx.ErrorTypeInvalidArgument},
		{"policy violation", kerr.PolicyViolation, errorx.ErrorTypeInvalidArgument},
		{"sasl failure", kerr.SaslAuthenticationFailed, errorx.ErrorTypeUnavailable},
		{"topic authorization", kerr.TopicAuthorizationFailed, errorx.ErrorTypeUnavailable},
		{"cluster authorization", kerr.ClusterAuthorizationFailed, errorx.ErrorTypeUnavailable},
		{"retriable broker error", kerr.NotController, errorx.ErrorTypeUnavailable},
		{"broker not available", kerr.BrokerNotAvailable, errorx.ErrorTypeUnavailable},
		{"client closed", kgo.ErrClientClosed, errorx.ErrorTypeUnavailable},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, errorx.ErrorTypeUnavailable},
		{"bare connection refused", syscall.ECONNREFUSED, errorx.ErrorTypeUnavailable},
		{"eof", io.EOF, errorx.ErrorTypeUnavailable},
		{"deadline", context.DeadlineExceeded, errorx.ErrorTypeDeadlineExceeded},
		{"wrapped deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), errorx.ErrorTypeDeadlineExceeded},
		{"non retriable broker error", kerr.UnsupportedVersion, errorx.ErrorTypeInternal},
		{"unknown error", errors.New("something odd"), errorx.ErrorTypeInternal},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cErr := Classify(tc.err)
			assert.Equal(t, tc.expected, cErr.Type)
			assert.Equal(t, tc.err.Error(), cErr.Message)
			assert.ErrorIs(t, cErr, tc.err)
		})
	}

	t.Run("should keep classified errors", func(t *testing.T) {
		err := errorx.NotFoundErrorf("topic %s not found", "orders")
		assert.Same(t, err, Classify(err))
	})

	t.Run("should return nil for nil errors", func(t *testing.T) {
		assert.Nil(t, Classify(nil))
	})
}
