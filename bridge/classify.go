package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/clinia/topicbridge/errorx"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	invalidArgumentErrors = []error{
		kerr.InvalidTopicException,
		kerr.InvalidPartitions,
		kerr.InvalidReplicationFactor,
		kerr.InvalidReplicaAssignment,
		kerr.InvalidConfig,
		kerr.PolicyViolation,
	}

	unavailableErrors = []error{
		kerr.SaslAuthenticationFailed,
		kerr.TopicAuthorizationFailed,
		kerr.ClusterAuthorizationFailed,
		kerr.IllegalSaslState,
		kerr.UnsupportedSaslMechanism,
		kerr.BrokerNotAvailable,
		kgo.ErrClientClosed,
		io.EOF,
		io.ErrUnexpectedEOF,
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
	}
)

// Classify maps an admin client error to a classified failure. The message is the error's own message.
// Errors that are already classified are returned unchanged.
func Classify(err error) *errorx.CliniaError {
	if err == nil {
		return nil
	}

	if cErr, ok := errorx.IsCliniaError(err); ok {
		return cErr
	}

	return errorx.New(classifyType(err), err.Error()).WithOriginalError(err)
}

func classifyType(err error) errorx.ErrorType {
	switch {
	case errors.Is(err, kerr.TopicAlreadyExists):
		return errorx.ErrorTypeAlreadyExists
	case errors.Is(err, kerr.UnknownTopicOrPartition), errors.Is(err, kerr.UnknownTopicID):
		return errorx.ErrorTypeNotFound
	case isAny(err, invalidArgumentErrors):
		return errorx.ErrorTypeInvalidArgument
	// context.DeadlineExceeded satisfies net.Error, it must be checked first.
	case errors.Is(err, context.DeadlineExceeded):
		return errorx.ErrorTypeDeadlineExceeded
	case isUnavailable(err):
		return errorx.ErrorTypeUnavailable
	default:
		return errorx.ErrorTypeInternal
	}
}

func isUnavailable(err error) bool {
	if isAny(err, unavailableErrors) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return kerr.IsRetriable(err)
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
