// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yaug/yaug/pkg/secret"
)

// Rehasher replaces outdated stored hashes after a successful login, while
// the plaintext password is still at hand.
type Rehasher struct {
	hasher  PasswordHasher
	updater HashUpdater
	exec    Executor
}

// NewRehasher creates a Rehasher.
func NewRehasher(hasher PasswordHasher, updater HashUpdater, exec Executor) (*Rehasher, error) {
	if hasher == nil || updater == nil || exec == nil {
		return nil, oops.Code("AUTH_INVALID_REHASHER").Errorf("hasher, updater and executor are required")
	}
	return &Rehasher{hasher: hasher, updater: updater, exec: exec}, nil
}

// Rehash hashes password under the current params and stores the result
// for userID.
func (r *Rehasher) Rehash(ctx context.Context, userID uuid.UUID, password secret.Secret[string]) error {
	var hash secret.Secret[string]
	err := r.exec.Execute(ctx, func(context.Context) error {
		var hashErr error
		hash, hashErr = r.hasher.Hash(password)
		return hashErr
	})
	if err != nil {
		return oops.Code("AUTH_REHASH_FAILED").
			With("user_id", userID.String()).
			With("operation", "hash password").
			Wrap(err)
	}

	if err := r.updater.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return oops.Code("AUTH_REHASH_FAILED").
			With("user_id", userID.String()).
			With("operation", "update password hash").
			Wrap(err)
	}
	return nil
}
