package errorx

import "fmt"

// DeadlineExceededErrorf creates a CliniaError with type ErrorTypeDeadlineExceeded and a formatted message
func DeadlineExceededErrorf(format string, args ...any) *CliniaError {
	return newWithStack(
		ErrorTypeDeadlineExceeded,
		fmt.Sprintf(format, args...),
	)
}

func IsDeadlineExceededError(e error) bool {
	return TypeOf(e) == ErrorTypeDeadlineExceeded
}
