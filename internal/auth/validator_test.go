// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/offload"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) Lookup(ctx context.Context, identifier string) (*auth.StoredCredential, error) {
	args := m.Called(ctx, identifier)
	cred, _ := args.Get(0).(*auth.StoredCredential)
	return cred, args.Error(1)
}

// recordingHasher counts Verify calls and remembers the hashes verified.
type recordingHasher struct {
	auth.PasswordHasher

	mu       sync.Mutex
	verified []string
}

func (h *recordingHasher) Verify(password, storedHash secret.Secret[string]) error {
	h.mu.Lock()
	h.verified = append(h.verified, storedHash.Expose())
	h.mu.Unlock()
	return h.PasswordHasher.Verify(password, storedHash)
}

func (h *recordingHasher) verifiedHashes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.verified...)
}

// inlineExecutor runs work on the calling goroutine.
type inlineExecutor struct{}

func (inlineExecutor) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type failingExecutor struct{ err error }

func (e failingExecutor) Execute(context.Context, func(context.Context) error) error {
	return e.err
}

type validatorFixture struct {
	store     *mockCredentialStore
	hasher    *recordingHasher
	validator *auth.Validator
	logs      *bytes.Buffer
	userID    uuid.UUID
	hash      secret.Secret[string]
}

func newValidatorFixture(t *testing.T, exec auth.Executor) *validatorFixture {
	t.Helper()

	inner := newTestHasher(t)
	f := &validatorFixture{
		store:  &mockCredentialStore{},
		hasher: &recordingHasher{PasswordHasher: inner},
		logs:   &bytes.Buffer{},
		userID: uuid.New(),
		hash:   mustHash(t, inner, "Secr3t!23"),
	}
	logger := slog.New(slog.NewJSONHandler(f.logs, nil))

	v, err := auth.NewValidator(f.store, f.hasher, exec, logger)
	require.NoError(t, err)
	f.validator = v
	// Placeholder derivation does not verify anything.
	require.Empty(t, f.hasher.verifiedHashes())
	return f
}

func (f *validatorFixture) knownAccount() {
	f.store.On("Lookup", mock.Anything, "user@example.com").
		Return(&auth.StoredCredential{UserID: f.userID, PasswordHash: f.hash}, nil)
}

func creds(identifier, password string) auth.Credentials {
	return auth.Credentials{Identifier: identifier, Password: secret.New(password)}
}

func TestValidator_UnknownIdentifier(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.store.On("Lookup", mock.Anything, "a@b.com").Return(nil, auth.ErrNotFound)

	outcome := f.validator.Validate(context.Background(), creds("a@b.com", "Secr3t!23"))

	assert.Equal(t, auth.OutcomeInvalidCredentials, outcome.Kind())
	_, ok := outcome.UserID()
	assert.False(t, ok)

	// The placeholder is still verified so the path costs a full hash.
	verified := f.hasher.verifiedHashes()
	require.Len(t, verified, 1)
	assert.NotEqual(t, f.hash.Expose(), verified[0])
	assert.Contains(t, verified[0], "$argon2id$v=19$m=64,t=1,p=1$")
	f.store.AssertExpectations(t)
}

func TestValidator_WrappedNotFound(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.store.On("Lookup", mock.Anything, "a@b.com").
		Return(nil, errors.Join(errors.New("no rows"), auth.ErrNotFound))

	outcome := f.validator.Validate(context.Background(), creds("a@b.com", "Secr3t!23"))
	assert.Equal(t, auth.OutcomeInvalidCredentials, outcome.Kind())
	assert.Len(t, f.hasher.verifiedHashes(), 1)
}

func TestValidator_NilCredentialTreatedAsUnknown(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.store.On("Lookup", mock.Anything, "a@b.com").Return(nil, nil)

	outcome := f.validator.Validate(context.Background(), creds("a@b.com", "Secr3t!23"))
	assert.Equal(t, auth.OutcomeInvalidCredentials, outcome.Kind())
}

func TestValidator_CorrectPassword(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.knownAccount()

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))

	require.Equal(t, auth.OutcomeAuthenticated, outcome.Kind())
	id, ok := outcome.UserID()
	require.True(t, ok)
	assert.Equal(t, f.userID, id)
	assert.NoError(t, outcome.Err())
	assert.False(t, outcome.NeedsRehash())
	assert.Equal(t, []string{f.hash.Expose()}, f.hasher.verifiedHashes())
}

func TestValidator_WrongPassword(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.knownAccount()

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "wrong!23"))

	assert.Equal(t, auth.OutcomeInvalidCredentials, outcome.Kind())
	_, ok := outcome.UserID()
	assert.False(t, ok)
	assert.NoError(t, outcome.Err())
	assert.Equal(t, []string{f.hash.Expose()}, f.hasher.verifiedHashes())
}

func TestValidator_StoreError(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	dbErr := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	f.store.On("Lookup", mock.Anything, "user@example.com").Return(nil, dbErr)

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))

	require.Equal(t, auth.OutcomeUnexpectedError, outcome.Kind())
	assert.ErrorIs(t, outcome.Err(), dbErr)
	errutil.AssertErrorContext(t, outcome.Err(), "operation", "lookup credentials")
	_, ok := outcome.UserID()
	assert.False(t, ok)
	assert.Empty(t, f.hasher.verifiedHashes())

	logs := f.logs.String()
	assert.Contains(t, logs, "credential validation failed")
	assert.Contains(t, logs, "connection refused")
	assert.NotContains(t, logs, "Secr3t!23")
	assert.NotContains(t, logs, "user@example.com")
}

func TestValidator_MalformedStoredHash(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.store.On("Lookup", mock.Anything, "user@example.com").
		Return(&auth.StoredCredential{UserID: f.userID, PasswordHash: secret.New("$argon2id$garbage")}, nil)

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))

	require.Equal(t, auth.OutcomeUnexpectedError, outcome.Kind())
	assert.ErrorIs(t, outcome.Err(), auth.ErrMalformedHash)
	assert.NotContains(t, f.logs.String(), "$argon2id$garbage")
}

func TestValidator_ExecutorFailure(t *testing.T) {
	f := newValidatorFixture(t, failingExecutor{err: offload.ErrPoolSaturated})
	f.knownAccount()

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))

	require.Equal(t, auth.OutcomeUnexpectedError, outcome.Kind())
	assert.ErrorIs(t, outcome.Err(), offload.ErrPoolSaturated)
	errutil.AssertErrorContext(t, outcome.Err(), "operation", "verify password")
}

func TestValidator_CallerCancelled(t *testing.T) {
	pool, err := offload.New(offload.Options{Workers: 1}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { _ = pool.Close(context.Background()) }()

	f := newValidatorFixture(t, pool)
	f.knownAccount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := f.validator.Validate(ctx, creds("user@example.com", "Secr3t!23"))
	require.Equal(t, auth.OutcomeUnexpectedError, outcome.Kind())
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
}

func TestValidator_WithOffloadPool(t *testing.T) {
	pool, err := offload.New(offload.Options{Workers: 2}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { _ = pool.Close(context.Background()) }()

	f := newValidatorFixture(t, pool)
	f.knownAccount()

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))
	assert.Equal(t, auth.OutcomeAuthenticated, outcome.Kind())
}

func TestValidator_LegacyHashNeedsRehash(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	legacy, err := sha512_crypt.New().Generate([]byte("Secr3t!23"), []byte("$6$yaugsalt"))
	require.NoError(t, err)
	f.store.On("Lookup", mock.Anything, "user@example.com").
		Return(&auth.StoredCredential{UserID: f.userID, PasswordHash: secret.New(legacy)}, nil)

	outcome := f.validator.Validate(context.Background(), creds("user@example.com", "Secr3t!23"))

	require.Equal(t, auth.OutcomeAuthenticated, outcome.Kind())
	assert.True(t, outcome.NeedsRehash())
}

func TestValidator_FailureOutcomesLookAlike(t *testing.T) {
	f := newValidatorFixture(t, inlineExecutor{})
	f.knownAccount()
	f.store.On("Lookup", mock.Anything, "a@b.com").Return(nil, auth.ErrNotFound)

	missing := f.validator.Validate(context.Background(), creds("a@b.com", "Secr3t!23"))
	wrong := f.validator.Validate(context.Background(), creds("user@example.com", "wrong!23"))

	assert.Equal(t, missing, wrong)
}

func TestValidator_UniformTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("timing comparison skipped in short mode")
	}

	// Costly enough that hashing dominates scheduling noise.
	hasher, err := auth.NewArgon2idHasher(auth.Params{
		MemoryKiB: 8 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	require.NoError(t, err)
	hash := mustHash(t, hasher, "Secr3t!23")
	legacy, err := md5_crypt.New().Generate([]byte("Secr3t!23"), []byte("$1$yaugsalt"))
	require.NoError(t, err)

	store := &mockCredentialStore{}
	store.On("Lookup", mock.Anything, "user@example.com").
		Return(&auth.StoredCredential{UserID: uuid.New(), PasswordHash: hash}, nil)
	store.On("Lookup", mock.Anything, "legacy@example.com").
		Return(&auth.StoredCredential{UserID: uuid.New(), PasswordHash: secret.New(legacy)}, nil)
	store.On("Lookup", mock.Anything, "broken@example.com").
		Return(&auth.StoredCredential{UserID: uuid.New(), PasswordHash: secret.New("$argon2id$garbage")}, nil)
	store.On("Lookup", mock.Anything, "a@b.com").Return(nil, auth.ErrNotFound)

	v, err := auth.NewValidator(store, hasher, inlineExecutor{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	measure := func(t *testing.T, identifier string, want auth.OutcomeKind) time.Duration {
		t.Helper()
		const rounds = 8
		var total time.Duration
		for range rounds {
			start := time.Now()
			outcome := v.Validate(context.Background(), creds(identifier, "wrong!23"))
			total += time.Since(start)
			require.Equal(t, want, outcome.Kind(), identifier)
		}
		return total / rounds
	}

	wrong := measure(t, "user@example.com", auth.OutcomeInvalidCredentials)

	tests := []struct {
		name       string
		identifier string
		want       auth.OutcomeKind
	}{
		{"unknown identifier", "a@b.com", auth.OutcomeInvalidCredentials},
		{"legacy crypt hash", "legacy@example.com", auth.OutcomeInvalidCredentials},
		{"malformed stored hash", "broken@example.com", auth.OutcomeUnexpectedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := measure(t, tt.identifier, tt.want)
			assert.Greater(t, float64(got), 0.5*float64(wrong),
				"%s=%s wrong=%s", tt.identifier, got, wrong)
		})
	}
}

func TestNewValidator_RequiresDependencies(t *testing.T) {
	hasher := newTestHasher(t)
	store := &mockCredentialStore{}
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name   string
		store  auth.CredentialStore
		hasher auth.PasswordHasher
		exec   auth.Executor
		logger *slog.Logger
	}{
		{"nil store", nil, hasher, inlineExecutor{}, logger},
		{"nil hasher", store, nil, inlineExecutor{}, logger},
		{"nil executor", store, hasher, nil, logger},
		{"nil logger", store, hasher, inlineExecutor{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewValidator(tt.store, tt.hasher, tt.exec, tt.logger)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_VALIDATOR")
		})
	}
}

func TestNewValidator_PinnedPlaceholder(t *testing.T) {
	store := &mockCredentialStore{}

	t.Run("default placeholder with default params", func(t *testing.T) {
		hasher, err := auth.NewArgon2idHasher(auth.DefaultParams())
		require.NoError(t, err)

		var logs bytes.Buffer
		_, err = auth.NewValidator(store, hasher, inlineExecutor{}, slog.New(slog.NewTextHandler(&logs, nil)),
			auth.WithPlaceholderHash(auth.DefaultPlaceholderHash))
		require.NoError(t, err)
		assert.NotContains(t, logs.String(), "placeholder hash is weaker")
	})

	t.Run("weaker placeholder warns", func(t *testing.T) {
		hasher, err := auth.NewArgon2idHasher(auth.Params{
			MemoryKiB: 32 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32,
		})
		require.NoError(t, err)

		var logs bytes.Buffer
		_, err = auth.NewValidator(store, hasher, inlineExecutor{}, slog.New(slog.NewTextHandler(&logs, nil)),
			auth.WithPlaceholderHash(auth.DefaultPlaceholderHash))
		require.NoError(t, err)
		assert.Contains(t, logs.String(), "placeholder hash is weaker")
	})

	t.Run("malformed placeholder rejected", func(t *testing.T) {
		_, err := auth.NewValidator(store, newTestHasher(t), inlineExecutor{}, slog.New(slog.DiscardHandler),
			auth.WithPlaceholderHash("not-a-hash"))
		errutil.AssertErrorCode(t, err, "AUTH_PLACEHOLDER_INVALID")
	})
}
