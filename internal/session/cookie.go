// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/yaug/yaug/pkg/secret"
)

// MinKeyLength is the minimum cookie signing key length in bytes.
const MinKeyLength = 32

// cookieClaims is the signed cookie payload.
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies session cookie values as HS256 JWTs.
type CookieCodec struct {
	key    secret.Secret[[]byte]
	parser *jwt.Parser
}

// NewCookieCodec creates a codec signing with key.
func NewCookieCodec(key secret.Secret[string]) (*CookieCodec, error) {
	if len(key.Expose()) < MinKeyLength {
		return nil, oops.Code("SESSION_INVALID_KEY").
			With("min_length", MinKeyLength).
			Errorf("cookie signing key must be at least %d bytes", MinKeyLength)
	}
	return &CookieCodec{
		key: secret.New([]byte(key.Expose())),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Encode returns a cookie value referencing token, valid until expiresAt.
func (c *CookieCodec) Encode(token string, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key.Expose())
	if err != nil {
		return "", oops.Code("SESSION_COOKIE_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Decode verifies value and returns the session token it references.
func (c *CookieCodec) Decode(value string) (string, error) {
	var claims cookieClaims
	_, err := c.parser.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return c.key.Expose(), nil
	})
	if err != nil {
		return "", oops.Code("SESSION_COOKIE_INVALID").Wrap(err)
	}
	if claims.SessionID == "" {
		return "", oops.Code("SESSION_COOKIE_INVALID").Errorf("cookie carries no session id")
	}
	return claims.SessionID, nil
}
