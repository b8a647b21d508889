// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package session tracks authenticated browser sessions.
//
// A session is a small attribute map stored server side under the SHA-256
// of a random token. The browser holds the token inside a signed cookie.
// Manager.Middleware loads the session for each request and RequireUser
// gates handlers on a bound user ID.
package session
