package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/loggerx"
	"go.opentelemetry.io/otel/attribute"
)

// ErrorResponse is the body of every failed request. It never carries a stack trace.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Type    errorx.ErrorType `json:"type"`
	Message string           `json:"message"`
}

// StatusCode maps an error type to its HTTP status.
func StatusCode(t errorx.ErrorType) int {
	switch t {
	case errorx.ErrorTypeAlreadyExists:
		return http.StatusConflict
	case errorx.ErrorTypeDeadlineExceeded:
		return http.StatusGatewayTimeout
	case errorx.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case errorx.ErrorTypeInvalidArgument:
		return http.StatusBadRequest
	case errorx.ErrorTypeNotFound:
		return http.StatusNotFound
	case errorx.ErrorTypeFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON renders v with the given status.
func WriteJSON(ctx context.Context, l *loggerx.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.WithError(err).Warn(ctx, "failed to write response body", attribute.Int("status", status))
	}
}

// WriteError renders err with the status of its type. Errors that are not classified are internal errors,
// their message is not exposed.
func WriteError(ctx context.Context, l *loggerx.Logger, w http.ResponseWriter, err error) {
	cErr, ok := errorx.IsCliniaError(err)
	if !ok {
		l.WithError(err).Error(ctx, "unclassified error reached the transport")
		cErr = errorx.InternalErrorf("internal error")
	}

	status := StatusCode(cErr.Type)
	if status >= http.StatusInternalServerError {
		l.WithError(err).Warn(ctx, "request failed", attribute.Int("status", status), attribute.String("error_type", cErr.Type.String()))
	}

	WriteJSON(ctx, l, w, status, ErrorResponse{
		Error: ErrorBody{Type: cErr.Type, Message: cErr.Message},
	})
}

// DecodeError turns an error body back into a classified error. Bodies that cannot be decoded become internal errors.
func DecodeError(res *Response) *errorx.CliniaError {
	var body ErrorResponse
	if err := json.Unmarshal(res.Body, &body); err != nil || body.Error.Type.Validate() != nil {
		return errorx.InternalErrorf("unexpected response with status %d: %s", res.StatusCode, string(res.Body))
	}
	return errorx.New(body.Error.Type, body.Error.Message)
}
