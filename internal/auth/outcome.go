// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import "github.com/google/uuid"

// OutcomeKind classifies a validation result.
type OutcomeKind int

// The zero value is OutcomeInvalidCredentials, so an uninitialised Outcome
// never grants access.
const (
	OutcomeInvalidCredentials OutcomeKind = iota
	OutcomeAuthenticated
	OutcomeUnexpectedError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeUnexpectedError:
		return "unexpected_error"
	default:
		return "invalid_credentials"
	}
}

// Outcome is the result of Validator.Validate.
type Outcome struct {
	kind        OutcomeKind
	userID      uuid.UUID
	err         error
	needsRehash bool
}

// Authenticated returns a successful outcome for userID.
func Authenticated(userID uuid.UUID) Outcome {
	return Outcome{kind: OutcomeAuthenticated, userID: userID}
}

// InvalidCredentials returns the outcome for an unknown identifier or a
// wrong password. The two are deliberately indistinguishable.
func InvalidCredentials() Outcome {
	return Outcome{kind: OutcomeInvalidCredentials}
}

// UnexpectedError returns the outcome for failures unrelated to the
// password itself. err is for server-side diagnostics only.
func UnexpectedError(err error) Outcome {
	return Outcome{kind: OutcomeUnexpectedError, err: err}
}

// Kind returns the outcome classification.
func (o Outcome) Kind() OutcomeKind {
	return o.kind
}

// UserID returns the authenticated user. ok is false for every other kind.
func (o Outcome) UserID() (id uuid.UUID, ok bool) {
	if o.kind != OutcomeAuthenticated {
		return uuid.Nil, false
	}
	return o.userID, true
}

// NeedsRehash reports whether the stored hash that authenticated the user
// should be replaced with one made under the current params.
func (o Outcome) NeedsRehash() bool {
	return o.kind == OutcomeAuthenticated && o.needsRehash
}

// Err returns the cause of an unexpected error, nil otherwise.
func (o Outcome) Err() error {
	return o.err
}
