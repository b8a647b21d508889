// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yaug/yaug/pkg/secret"
)

// Login password length bounds. The upper bound caps the bytes fed to
// argon2 by an anonymous client.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 120
)

// Credentials is an identifier/password pair presented by a client.
// It is built per request and handed to Validator.Validate once.
type Credentials struct {
	Identifier string
	Password   secret.Secret[string]
}

// NewCredentials builds Credentials from untrusted input. The identifier is
// trimmed; the password is taken as-is.
func NewCredentials(identifier string, password secret.Secret[string]) (Credentials, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Credentials{}, oops.Code("AUTH_INVALID_INPUT").
			With("field", "identifier").
			Errorf("identifier cannot be empty")
	}
	if n := len(password.Expose()); n < MinPasswordLength || n > MaxPasswordLength {
		return Credentials{}, oops.Code("AUTH_INVALID_INPUT").
			With("field", "password").
			Errorf("password must be between %d and %d bytes", MinPasswordLength, MaxPasswordLength)
	}
	return Credentials{Identifier: identifier, Password: password}, nil
}

// StoredCredential is what a CredentialStore returns for a login identifier.
// PasswordHash is a self-describing PHC string.
type StoredCredential struct {
	UserID       uuid.UUID
	PasswordHash secret.Secret[string]
}

// CredentialStore resolves login identifiers to stored credentials.
type CredentialStore interface {
	// Lookup returns the credential for identifier, or an error wrapping
	// ErrNotFound when no account matches.
	Lookup(ctx context.Context, identifier string) (*StoredCredential, error)
}

// HashUpdater replaces the stored hash of an account.
type HashUpdater interface {
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash secret.Secret[string]) error
}
