package stringsx

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCase = errors.New("unknown case")

type (
	RegisteredCases struct {
		cases  []string
		actual string
	}
	errUnknownCase struct {
		*RegisteredCases
	}
)

// SwitchExact registers the value a switch statement is matched against.
//
//	switch f := stringsx.SwitchExact(provider); {
//	case f.AddCase("kafka"):
//	default:
//		return f.ToUnknownCaseErr()
//	}
func SwitchExact(actual string) *RegisteredCases {
	return &RegisteredCases{
		actual: actual,
	}
}

func (r *RegisteredCases) AddCase(c string) bool {
	r.cases = append(r.cases, c)
	return r.actual == c
}

func (r *RegisteredCases) String() string {
	return "[" + strings.Join(r.cases, ", ") + "]"
}

func (r *RegisteredCases) ToUnknownCaseErr() error {
	return errUnknownCase{r}
}

func (e errUnknownCase) Error() string {
	return fmt.Sprintf("expected one of %s but got %q", e.String(), e.actual)
}

func (e errUnknownCase) Is(err error) bool {
	return err == ErrUnknownCase
}
