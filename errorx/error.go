package errorx

import (
	"fmt"

	"github.com/pkg/errors"
)

type CliniaError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	OriginalError error `json:"-"` // Not returned to clients

	stack Callers
}

var _ error = (*CliniaError)(nil)

func (e *CliniaError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

func (e *CliniaError) Unwrap() error {
	return e.OriginalError
}

// StackTrace returns the call stack captured when the error was created.
// Errors built as struct literals carry no stack.
func (e *CliniaError) StackTrace() Callers {
	return e.stack
}

// WithOriginalError returns a copy of the error that keeps err as its cause.
func (e *CliniaError) WithOriginalError(err error) *CliniaError {
	ce := *e
	ce.OriginalError = err
	return &ce
}

// Is reports whether target is a CliniaError of the same type.
// This allows errors.Is(err, &errorx.CliniaError{Type: errorx.ErrorTypeNotFound}).
func (e *CliniaError) Is(target error) bool {
	t, ok := target.(*CliniaError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

func newWithStack(t ErrorType, msg string) *CliniaError {
	return &CliniaError{
		Type:    t,
		Message: msg,
		stack:   callers(2),
	}
}

// IsCliniaError returns the first CliniaError found in the chain of e.
func IsCliniaError(e error) (*CliniaError, bool) {
	if e == nil {
		return nil, false
	}

	var cE *CliniaError
	if !errors.As(e, &cE) || cE == nil {
		return nil, false
	}

	if cE.Type == ErrorTypeUnspecified {
		return nil, false
	}

	return cE, true
}

// TypeOf returns the type of the first CliniaError in the chain of e, or
// ErrorTypeUnspecified when there is none.
func TypeOf(e error) ErrorType {
	cE, ok := IsCliniaError(e)
	if !ok {
		return ErrorTypeUnspecified
	}
	return cE.Type
}

// New creates a CliniaError of the given type with a stack trace.
func New(t ErrorType, msg string) *CliniaError {
	return newWithStack(t, msg)
}
