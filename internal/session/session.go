// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yaug/yaug/internal/observability"
)

const userIDKey = "user_id"

// Session is the per-request view of a stored session. It is owned by the
// request that loaded it and is not safe for concurrent use.
type Session struct {
	manager *Manager
	w       http.ResponseWriter

	token  string
	values map[string]string

	// stale holds the token replaced by Renew. Its record is deleted on the
	// next write.
	stale string
}

// Renew switches the session to a fresh token and clears its attributes.
// The new token is assigned when the session is next written.
func (s *Session) Renew() {
	if s.token != "" && s.stale == "" {
		s.stale = s.token
	}
	s.token = ""
	s.values = make(map[string]string)
}

// InsertUserID binds the session to userID and writes it through to the
// store before returning. The old record left by Renew is deleted and the
// signed cookie is reissued.
func (s *Session) InsertUserID(ctx context.Context, userID uuid.UUID) error {
	s.values[userIDKey] = userID.String()
	return s.persist(ctx)
}

// UserID returns the bound user, if any.
func (s *Session) UserID() (uuid.UUID, bool) {
	raw, ok := s.values[userIDKey]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Destroy deletes the stored record and expires the cookie.
func (s *Session) Destroy(ctx context.Context) error {
	for _, token := range []string{s.token, s.stale} {
		if token == "" {
			continue
		}
		if err := s.manager.delete(ctx, token); err != nil {
			return err
		}
	}

	s.token, s.stale = "", ""
	s.values = make(map[string]string)
	http.SetCookie(s.w, s.manager.expiredCookie())
	return nil
}

func (s *Session) persist(ctx context.Context) error {
	m := s.manager

	if s.token == "" {
		token, err := GenerateToken()
		if err != nil {
			return oops.Code("SESSION_STORE_FAILED").With("operation", "generate token").Wrap(err)
		}
		s.token = token
	}

	expiresAt := time.Now().Add(m.opts.TTL)
	value, err := m.codec.Encode(s.token, expiresAt)
	if err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "sign cookie").Wrap(err)
	}

	err = m.store.Save(ctx, StoreKey(s.token), s.values, m.opts.TTL)
	observability.RecordSessionOperation("save", err)
	if err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "save").Wrap(err)
	}

	if s.stale != "" {
		if err := m.delete(ctx, s.stale); err != nil {
			return err
		}
		s.stale = ""
	}

	http.SetCookie(s.w, m.cookie(value, expiresAt))
	return nil
}
