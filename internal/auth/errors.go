// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import "errors"

// ErrNotFound is returned by a CredentialStore when no account matches.
var ErrNotFound = errors.New("not found")

// Hasher failure taxonomy. Hasher errors are coded oops errors wrapping one
// of these, so callers classify with errors.Is.
var (
	// ErrInvalidParams reports a work factor outside the accepted bounds.
	ErrInvalidParams = errors.New("invalid hash parameters")

	// ErrPasswordMismatch reports a well-formed hash that the password does
	// not match.
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrMalformedHash reports a stored hash that could not be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// GenericFailureMessage is the only text shown to a client whose login did
// not succeed, whatever the cause.
const GenericFailureMessage = "Authentication failed: invalid username or password."
