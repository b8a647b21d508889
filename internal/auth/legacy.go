// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package auth

import (
	"errors"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/yaug/yaug/pkg/secret"
)

// Accounts imported from older systems may carry crypt(3) hashes. They stay
// verifiable so the first successful login can replace them with argon2id.
var legacyCrypters = []struct {
	prefix  string
	crypter func() crypt.Crypter
}{
	{prefix: "$6$", crypter: sha512_crypt.New},
	{prefix: "$5$", crypter: sha256_crypt.New},
	{prefix: "$1$", crypter: md5_crypt.New},
}

func legacyCrypter(encoded string) (crypt.Crypter, bool) {
	for _, c := range legacyCrypters {
		if strings.HasPrefix(encoded, c.prefix) {
			return c.crypter(), true
		}
	}
	return nil, false
}

func verifyLegacy(c crypt.Crypter, password secret.Secret[string], encoded string) error {
	err := c.Verify(encoded, []byte(password.Expose()))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, crypt.ErrKeyMismatch):
		return errMismatch()
	default:
		return errMalformed("legacy crypt hash rejected")
	}
}
