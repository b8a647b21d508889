// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package errutil

import (
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertNoLeak asserts that neither the message nor the context of err
// contains raw.
func AssertNoLeak(t *testing.T, err error, raw string) {
	t.Helper()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), raw)
	assert.NotContains(t, fmt.Sprintf("%+v", err), raw)
	if oopsErr, ok := oops.AsOops(err); ok {
		assert.NotContains(t, fmt.Sprint(oopsErr.Context()), raw)
	}
}
