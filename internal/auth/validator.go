// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yaug/yaug/internal/observability"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

var tracer = otel.Tracer("yaug/auth")

// DefaultPlaceholderHash is a well-formed argon2id hash under DefaultParams
// that no password is known to match. It may be pinned with
// WithPlaceholderHash when DefaultParams are in use.
const DefaultPlaceholderHash = "$argon2id$v=19$m=19456,t=2,p=1$lqcJ9M8PtPniKBMqt+CBNQ$tM0fHLX4yxKw1D7XGf3B397EuRJ2ddmVWamKRgMm3ZQ"

// Executor runs blocking work off the request goroutine.
// *offload.Pool satisfies it.
type Executor interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*validatorOptions)

type validatorOptions struct {
	placeholder string
}

// WithPlaceholderHash pins the hash verified against when the identifier is
// unknown. By default one is derived under the hasher's params at
// construction.
func WithPlaceholderHash(hash string) ValidatorOption {
	return func(o *validatorOptions) {
		o.placeholder = hash
	}
}

// Validator decides whether a presented identifier/password pair belongs to
// a known account.
//
// A password is always verified, against the account's hash when one exists
// and against a placeholder otherwise, so an unknown identifier costs the
// same as a wrong password.
type Validator struct {
	store       CredentialStore
	hasher      PasswordHasher
	exec        Executor
	logger      *slog.Logger
	placeholder secret.Secret[string]
}

// NewValidator creates a validator. All dependencies are required.
func NewValidator(
	store CredentialStore,
	hasher PasswordHasher,
	exec Executor,
	logger *slog.Logger,
	opts ...ValidatorOption,
) (*Validator, error) {
	if store == nil {
		return nil, oops.Code("AUTH_INVALID_VALIDATOR").Errorf("credential store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_VALIDATOR").Errorf("password hasher is required")
	}
	if exec == nil {
		return nil, oops.Code("AUTH_INVALID_VALIDATOR").Errorf("executor is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_VALIDATOR").Errorf("logger is required")
	}

	var o validatorOptions
	for _, opt := range opts {
		opt(&o)
	}

	placeholder, err := resolvePlaceholder(hasher, o.placeholder)
	if err != nil {
		return nil, err
	}
	if hasher.NeedsRehash(placeholder) {
		logger.Warn("placeholder hash is weaker than the configured params; unknown identifiers may verify faster")
	}

	return &Validator{
		store:       store,
		hasher:      hasher,
		exec:        exec,
		logger:      logger,
		placeholder: placeholder,
	}, nil
}

// resolvePlaceholder returns pinned after checking it is a well-formed hash,
// or derives a fresh one from a random password.
func resolvePlaceholder(hasher PasswordHasher, pinned string) (secret.Secret[string], error) {
	if pinned == "" {
		hash, err := hasher.Hash(secret.New(rand.Text()))
		if err != nil {
			return secret.Secret[string]{}, oops.Code("AUTH_PLACEHOLDER_INVALID").
				With("operation", "derive placeholder").
				Wrap(err)
		}
		return hash, nil
	}

	hash := secret.New(pinned)
	if err := hasher.Verify(secret.New(rand.Text()), hash); !errors.Is(err, ErrPasswordMismatch) {
		return secret.Secret[string]{}, oops.Code("AUTH_PLACEHOLDER_INVALID").
			Errorf("placeholder hash must be a well-formed hash")
	}
	return hash, nil
}

// Validate checks creds against the credential store.
//
// It never returns an error: failures unrelated to the password are folded
// into an UnexpectedError outcome and logged here, without the identifier or
// password.
func (v *Validator) Validate(ctx context.Context, creds Credentials) Outcome {
	ctx, span := tracer.Start(ctx, "auth.validate")
	defer span.End()

	start := time.Now()
	outcome := v.validate(ctx, creds)
	kind := outcome.Kind().String()

	span.SetAttributes(attribute.String("auth.outcome", kind))
	if outcome.Kind() == OutcomeUnexpectedError {
		span.RecordError(outcome.Err())
		span.SetStatus(codes.Error, "credential validation failed")
		errutil.LogErrorContext(ctx, v.logger, "credential validation failed", outcome.Err())
	}
	observability.RecordLoginOutcome(kind, time.Since(start))

	return outcome
}

func (v *Validator) validate(ctx context.Context, creds Credentials) Outcome {
	var (
		userID uuid.UUID
		found  bool
		target = v.placeholder
	)

	stored, err := v.store.Lookup(ctx, creds.Identifier)
	switch {
	case err == nil && stored != nil:
		userID, target, found = stored.UserID, stored.PasswordHash, true
	case err == nil, errors.Is(err, ErrNotFound):
		// Unknown identifier: verify against the placeholder.
	default:
		return UnexpectedError(oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "lookup credentials").
			Wrap(err))
	}

	err = v.exec.Execute(ctx, func(context.Context) error {
		return v.hasher.Verify(creds.Password, target)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrPasswordMismatch):
		return InvalidCredentials()
	default:
		return UnexpectedError(oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err))
	}

	if !found {
		return InvalidCredentials()
	}

	outcome := Authenticated(userID)
	outcome.needsRehash = v.hasher.NeedsRehash(target)
	return outcome
}
