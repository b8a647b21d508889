// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/pkg/secret"
)

// DBTX is the subset of *pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	lookupQuery    = `SELECT user_id, password_hash FROM accounts WHERE LOWER(email) = LOWER($1)`
	getByIDQuery   = `SELECT user_id, email, password_hash, created_at FROM accounts WHERE user_id = $1`
	insertQuery    = `INSERT INTO accounts (user_id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	updateHashStmt = `UPDATE accounts SET password_hash = $2 WHERE user_id = $1`
)

// AccountRepository implements auth.AccountRepository over the accounts table.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Lookup returns the credential for an email, matched case-insensitively.
// The identifier is kept out of error context because lookup failures are
// logged on the login path.
func (r *AccountRepository) Lookup(ctx context.Context, identifier string) (*auth.StoredCredential, error) {
	var (
		userID uuid.UUID
		hash   string
	)
	err := r.db.QueryRow(ctx, lookupQuery, identifier).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "lookup credentials").
			Wrap(err)
	}
	return &auth.StoredCredential{UserID: userID, PasswordHash: secret.New(hash)}, nil
}

// GetByUserID retrieves an account by user ID.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*auth.Account, error) {
	var (
		acct auth.Account
		hash string
	)
	err := r.db.QueryRow(ctx, getByIDQuery, userID).Scan(&acct.UserID, &acct.Email, &hash, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by user id").
			With("user_id", userID.String()).
			Wrap(err)
	}
	acct.PasswordHash = secret.New(hash)
	return &acct, nil
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.db.Exec(ctx, insertQuery,
		account.UserID,
		account.Email,
		account.PasswordHash.Expose(),
		account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_EMAIL_TAKEN").
				With("email", account.Email).
				Errorf("an account with this email already exists")
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("user_id", account.UserID.String()).
			Wrap(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash of an account.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash secret.Secret[string]) error {
	tag, err := r.db.Exec(ctx, updateHashStmt, userID, hash.Expose())
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update password hash").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
