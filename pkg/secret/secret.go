// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package secret provides a wrapper for sensitive values such as passwords,
// password hashes, and connection strings.
//
// A [Secret] renders as "[REDACTED]" through every default path: fmt verbs,
// slog, encoding/json, encoding.TextMarshaler, and YAML. The raw value is
// only reachable through [Secret.Expose], which makes each use easy to find
// in review.
package secret

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/samber/oops"
)

// Redacted is the placeholder written wherever a secret would be rendered.
const Redacted = "[REDACTED]"

// Secret holds a sensitive value of type T.
// The zero value is an empty secret.
//
// The value sits behind a pointer: fmt prints a Secret stored in an
// unexported field by reflection, without calling Format, and then only
// sees an address.
type Secret[T any] struct {
	value *T
}

// New wraps v.
func New[T any](v T) Secret[T] {
	return Secret[T]{value: &v}
}

// Expose returns the wrapped value. Callers must not log, print, or persist
// the result other than through the component that owns it.
func (s Secret[T]) Expose() T {
	if s.value == nil {
		var zero T
		return zero
	}
	return *s.value
}

// IsZero reports whether the wrapped value is the zero value of T.
func (s Secret[T]) IsZero() bool {
	return s.value == nil || reflect.ValueOf(s.value).Elem().IsZero()
}

// String implements fmt.Stringer.
func (s Secret[T]) String() string {
	return Redacted
}

// GoString implements fmt.GoStringer so %#v does not dump the struct.
func (s Secret[T]) GoString() string {
	return Redacted
}

// Format implements fmt.Formatter. Every verb, including %x and %q,
// writes the placeholder.
func (s Secret[T]) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, Redacted) //nolint:errcheck // fmt.Formatter has no error return
}

// LogValue implements slog.LogValuer.
func (s Secret[T]) LogValue() slog.Value {
	return slog.StringValue(Redacted)
}

// MarshalJSON implements json.Marshaler.
func (s Secret[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(Redacted)
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret[T]) MarshalText() ([]byte, error) {
	return []byte(Redacted), nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Secret[T]) MarshalYAML() (any, error) {
	return Redacted, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for string and []byte
// secrets. It lets configuration loaders and form decoders create secrets
// directly from their input.
func (s *Secret[T]) UnmarshalText(text []byte) error {
	var v T
	switch p := any(&v).(type) {
	case *string:
		*p = string(text)
	case *[]byte:
		*p = append([]byte(nil), text...)
	default:
		return oops.Code("SECRET_UNSUPPORTED_TYPE").
			With("type", fmt.Sprintf("%T", v)).
			Errorf("secret cannot be decoded from text")
	}
	s.value = &v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Secret[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// The decoder error may quote the input; do not wrap it.
		return oops.Code("SECRET_DECODE_FAILED").Errorf("secret could not be decoded from JSON")
	}
	s.value = &v
	return nil
}
