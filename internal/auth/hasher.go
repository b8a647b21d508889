// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"

	"github.com/yaug/yaug/pkg/secret"
)

const argon2idPrefix = "$argon2id$"

// PHC strings use unpadded standard base64.
var phcEncoding = base64.RawStdEncoding.Strict()

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password.
	Hash(password secret.Secret[string]) (secret.Secret[string], error)

	// Verify returns nil when the password matches the stored hash.
	// Otherwise the error wraps ErrPasswordMismatch or ErrMalformedHash.
	Verify(password, storedHash secret.Secret[string]) error

	// NeedsRehash returns true if the stored hash uses another algorithm
	// or a weaker work factor than the hasher's own.
	NeedsRehash(storedHash secret.Secret[string]) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
// It also verifies legacy crypt(3) hashes, which always need a rehash.
type Argon2idHasher struct {
	params Params
	rand   io.Reader
}

// NewArgon2idHasher creates a hasher with the given work factor.
func NewArgon2idHasher(params Params) (*Argon2idHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Argon2idHasher{params: params, rand: rand.Reader}, nil
}

// Params returns the work factor used for new hashes.
func (h *Argon2idHasher) Params() Params {
	return h.params
}

// Hash produces an argon2id PHC string with a fresh random salt.
func (h *Argon2idHasher) Hash(password secret.Secret[string]) (secret.Secret[string], error) {
	if password.IsZero() {
		return secret.Secret[string]{}, ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return secret.Secret[string]{}, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	digest := argon2.IDKey([]byte(password.Expose()), salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return secret.New(encodePHC(h.params, salt, digest)), nil
}

// Verify recomputes the digest under the parameters embedded in storedHash
// and compares in constant time.
func (h *Argon2idHasher) Verify(password, storedHash secret.Secret[string]) error {
	encoded := storedHash.Expose()

	if crypter, ok := legacyCrypter(encoded); ok {
		h.equalizeCost(password)
		return verifyLegacy(crypter, password, encoded)
	}

	params, salt, expected, err := decodePHC(encoded)
	if err != nil {
		h.equalizeCost(password)
		return err
	}

	computed := argon2.IDKey([]byte(password.Expose()), salt,
		params.Iterations, params.MemoryKiB, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return errMismatch()
	}
	return nil
}

// equalizeCost runs one argon2id derivation under the configured params and
// discards it. Paths that do not reach the argon2id compare call it so they
// take as long as verifying against the placeholder hash.
func (h *Argon2idHasher) equalizeCost(password secret.Secret[string]) {
	salt := make([]byte, h.params.SaltLength)
	_ = argon2.IDKey([]byte(password.Expose()), salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)
}

// NeedsRehash returns true for non-argon2id hashes, unparsable hashes, and
// argon2id hashes weaker than the configured params.
func (h *Argon2idHasher) NeedsRehash(storedHash secret.Secret[string]) bool {
	params, _, _, err := decodePHC(storedHash.Expose())
	if err != nil {
		return true
	}
	return params.weakerThan(h.params)
}

// encodePHC renders $argon2id$v=19$m=<kib>,t=<iter>,p=<lanes>$<salt>$<digest>.
func encodePHC(p Params, salt, digest []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		phcEncoding.EncodeToString(salt),
		phcEncoding.EncodeToString(digest),
	)
}

// decodePHC parses an argon2id PHC string. Every failure wraps
// ErrMalformedHash; the hash itself never appears in the error.
func decodePHC(encoded string) (Params, []byte, []byte, error) {
	if !strings.HasPrefix(encoded, argon2idPrefix) {
		return Params{}, nil, nil, errMalformed("unsupported hash algorithm")
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, errMalformed("invalid hash format")
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return Params{}, nil, nil, errMalformed("unsupported argon2 version")
	}

	var p Params
	fields := strings.Split(parts[3], ",")
	if len(fields) != 3 {
		return Params{}, nil, nil, errMalformed("invalid parameter list")
	}
	memory, ok := parseParam(fields[0], "m=", 32)
	if !ok {
		return Params{}, nil, nil, errMalformed("invalid memory parameter")
	}
	iterations, ok := parseParam(fields[1], "t=", 32)
	if !ok {
		return Params{}, nil, nil, errMalformed("invalid iterations parameter")
	}
	lanes, ok := parseParam(fields[2], "p=", 8)
	if !ok {
		return Params{}, nil, nil, errMalformed("invalid parallelism parameter")
	}
	p.MemoryKiB = uint32(memory)
	p.Iterations = uint32(iterations)
	p.Parallelism = uint8(lanes)

	salt, err := phcEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, errMalformed("invalid salt encoding")
	}
	digest, err := phcEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, errMalformed("invalid digest encoding")
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(digest))

	if err := p.Validate(); err != nil {
		return Params{}, nil, nil, errMalformed("parameters out of bounds")
	}

	return p, salt, digest, nil
}

func parseParam(field, prefix string, bitSize int) (uint64, bool) {
	raw, found := strings.CutPrefix(field, prefix)
	if !found || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, bitSize)
	if err != nil {
		return 0, false
	}
	return v, true
}

func errMalformed(reason string) error {
	return oops.Code("AUTH_HASH_MALFORMED").
		With("reason", reason).
		Wrap(ErrMalformedHash)
}

func errMismatch() error {
	return oops.Code("AUTH_PASSWORD_MISMATCH").Wrap(ErrPasswordMismatch)
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
