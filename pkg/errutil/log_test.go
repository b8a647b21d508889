// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line: %s", buf.String())
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("AUTH_LOGIN_FAILED").
		With("operation", "lookup credentials").
		Errorf("store unreachable")

	errutil.LogError(logger, "login failed", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "login failed", entry["msg"])
	assert.Equal(t, "AUTH_LOGIN_FAILED", entry["code"])
	ctx, ok := entry["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "lookup credentials", ctx["operation"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}

func TestLogErrorContext_ExtraAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("SESSION_STORE_FAILED").Errorf("redis down")
	errutil.LogErrorContext(context.Background(), logger, "bind failed", err,
		"request_id", "01J0000000000000000000000",
		"password", secret.New("Secr3t!23"),
	)

	entry := decode(t, &buf)
	assert.Equal(t, "01J0000000000000000000000", entry["request_id"])
	assert.Equal(t, secret.Redacted, entry["password"])
	assert.NotContains(t, buf.String(), "Secr3t!23")
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "oops with code", err: oops.Code("OFFLOAD_SATURATED").Errorf("full"), want: "OFFLOAD_SATURATED"},
		{name: "coded wrap of plain error", err: oops.Code("OUTER").Wrap(errors.New("x")), want: "OUTER"},
		{name: "oops without code", err: oops.Errorf("plain"), want: ""},
		{name: "standard error", err: errors.New("plain"), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}
