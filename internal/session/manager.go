// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/yaug/yaug/internal/observability"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

// Cookie defaults.
const (
	DefaultCookieName = "yaug_session"
	DefaultTTL        = 24 * time.Hour
)

// Options configures session cookies.
type Options struct {
	CookieName string        `koanf:"cookie_name" yaml:"cookie_name"`
	TTL        time.Duration `koanf:"ttl" yaml:"ttl"`
	// Secure marks the cookie HTTPS-only.
	Secure bool `koanf:"secure" yaml:"secure"`
}

func (o Options) withDefaults() Options {
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

type contextKey struct{}

// Manager loads sessions for requests and persists them on change.
type Manager struct {
	store  Store
	codec  *CookieCodec
	opts   Options
	logger *slog.Logger
}

// NewManager creates a Manager. key signs session cookies.
func NewManager(store Store, key secret.Secret[string], opts Options, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_INVALID_MANAGER").Errorf("session store is required")
	}
	if logger == nil {
		return nil, oops.Code("SESSION_INVALID_MANAGER").Errorf("logger is required")
	}
	codec, err := NewCookieCodec(key)
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:  store,
		codec:  codec,
		opts:   opts.withDefaults(),
		logger: logger,
	}, nil
}

// Middleware attaches a Session to each request context. A missing,
// tampered, or expired cookie yields an empty session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r, w)
		ctx := context.WithValue(r.Context(), contextKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok
}

func (m *Manager) load(r *http.Request, w http.ResponseWriter) *Session {
	sess := &Session{manager: m, w: w, values: make(map[string]string)}

	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return sess
	}
	token, err := m.codec.Decode(cookie.Value)
	if err != nil {
		m.logger.DebugContext(r.Context(), "ignoring invalid session cookie", "code", errutil.Code(err))
		return sess
	}

	values, err := m.store.Load(r.Context(), StoreKey(token))
	if errors.Is(err, ErrNotFound) {
		observability.RecordSessionOperation("load", nil)
		return sess
	}
	observability.RecordSessionOperation("load", err)
	if err != nil {
		// Treated as anonymous; gated routes send the user to log in.
		errutil.LogErrorContext(r.Context(), m.logger, "session load failed",
			oops.Code("SESSION_STORE_FAILED").With("operation", "load").Wrap(err))
		return sess
	}

	sess.token = token
	sess.values = values
	return sess
}

func (m *Manager) delete(ctx context.Context, token string) error {
	err := m.store.Delete(ctx, StoreKey(token))
	observability.RecordSessionOperation("delete", err)
	if err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "delete").Wrap(err)
	}
	return nil
}

func (m *Manager) cookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
