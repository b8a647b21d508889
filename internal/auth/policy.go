// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/samber/oops"

	"github.com/yaug/yaug/pkg/secret"
)

// specialCharacters lists the characters an account password must include at least one of.
const specialCharacters = "~`!@#$%^&*()_-+={[}]|\\:;\"'<,>.?/"

// generatedCharset is the alphabet used by GeneratePassword.
const generatedCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789)(*&^%$#@!~"

// ValidateAccountPassword applies the policy for new account passwords:
// not blank, MinPasswordLength..MaxPasswordLength bytes, and at least one
// special character. Login attempts only check the length.
func ValidateAccountPassword(password secret.Secret[string]) error {
	pw := password.Expose()
	if strings.TrimSpace(pw) == "" ||
		len(pw) < MinPasswordLength || len(pw) > MaxPasswordLength ||
		!strings.ContainsAny(pw, specialCharacters) {
		return oops.Code("ACCOUNT_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			With("max", MaxPasswordLength).
			Errorf("password does not meet minimum requirements")
	}
	return nil
}

// GeneratePassword returns a random password of the given length that
// satisfies ValidateAccountPassword.
func GeneratePassword(length int) (secret.Secret[string], error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return secret.Secret[string]{}, oops.Code("ACCOUNT_INVALID_LENGTH").
			With("length", length).
			Errorf("generated password length must be between %d and %d", MinPasswordLength, MaxPasswordLength)
	}

	buf := make([]byte, length)
	for i := range buf {
		c, err := randomByte(generatedCharset)
		if err != nil {
			return secret.Secret[string]{}, err
		}
		buf[i] = c
	}

	if !strings.ContainsAny(string(buf), specialCharacters) {
		c, err := randomByte(specialCharacters)
		if err != nil {
			return secret.Secret[string]{}, err
		}
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(length)))
		if err != nil {
			return secret.Secret[string]{}, oops.Code("ACCOUNT_RANDOM_FAILED").Wrap(err)
		}
		buf[idx.Int64()] = c
	}

	return secret.New(string(buf)), nil
}

func randomByte(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, oops.Code("ACCOUNT_RANDOM_FAILED").Wrap(err)
	}
	return alphabet[n.Int64()], nil
}
