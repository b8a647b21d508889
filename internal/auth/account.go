// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yaug/yaug/pkg/secret"
)

// Account is a stored login account.
type Account struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash secret.Secret[string]
	CreatedAt    time.Time
}

// NewAccount creates a validated Account with a fresh user ID.
func NewAccount(email string, passwordHash secret.Secret[string]) (*Account, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if passwordHash.IsZero() {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &Account{
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NormalizeEmail checks that email is a bare address with a dotted domain
// and returns it trimmed.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("%q is not a valid email address", email)
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return "", oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("%q is not a valid email address", email)
	}
	return email, nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	CredentialStore
	HashUpdater

	// Create stores a new account. Returns an error coded
	// ACCOUNT_EMAIL_TAKEN when the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByUserID retrieves an account by user ID.
	// Returns ErrNotFound if no account has the given ID.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
}
