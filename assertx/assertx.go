// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package assertx

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

type tHelper interface {
	Helper()
}

func helper(t any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

// EqualAsJSON compares the JSON encodings of expected and actual.
func EqualAsJSON(t require.TestingT, expected, actual any, args ...any) bool {
	helper(t)
	return EqualAsJSONExcept(t, expected, actual, nil, args...)
}

// EqualAsJSONExcept compares the JSON encodings of expected and actual without the given sjson paths.
// Use it for generated values such as ids.
func EqualAsJSONExcept(t require.TestingT, expected, actual any, except []string, args ...any) bool {
	helper(t)

	e, err := json.Marshal(expected)
	require.NoError(t, err)
	a, err := json.Marshal(actual)
	require.NoError(t, err)

	if len(args) == 0 {
		args = []any{string(a)}
	}

	for _, path := range except {
		e, err = sjson.DeleteBytes(e, path)
		require.NoError(t, err)
		a, err = sjson.DeleteBytes(a, path)
		require.NoError(t, err)
	}

	return assert.JSONEq(t, string(e), string(a), args...)
}

// Equal compares with go-cmp and reports the diff.
func Equal(t assert.TestingT, expected, actual any, opts ...cmp.Option) bool {
	helper(t)
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("Not equal (-expected +actual):\n%s", diff)
		return false
	}
	return true
}
