package errorx

import "fmt"

// AlreadyExistsErrorf creates a CliniaError with type ErrorTypeAlreadyExists and a formatted message
func AlreadyExistsErrorf(format string, args ...any) *CliniaError {
	return newWithStack(
		ErrorTypeAlreadyExists,
		fmt.Sprintf(format, args...),
	)
}

func IsAlreadyExistsError(e error) bool {
	return TypeOf(e) == ErrorTypeAlreadyExists
}
