// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package web serves the login, logout, and account pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/observability"
	"github.com/yaug/yaug/internal/session"
	"github.com/yaug/yaug/pkg/secret"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Paths served by the handler.
const (
	PathHome    = "/"
	PathLogin   = "/login"
	PathLogout  = "/logout"
	PathAccount = "/account"
)

// maxFormBytes caps a login form body.
const maxFormBytes = 4 << 10

// CredentialValidator checks login credentials.
type CredentialValidator interface {
	Validate(ctx context.Context, creds auth.Credentials) auth.Outcome
}

// PasswordRehasher upgrades a stored hash after a successful login.
type PasswordRehasher interface {
	Rehash(ctx context.Context, userID uuid.UUID, password secret.Secret[string]) error
}

// AccountGetter resolves a bound user ID to its account.
type AccountGetter interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*auth.Account, error)
}

// Deps holds the collaborators of the web handler. Rehasher and Metrics
// are optional.
type Deps struct {
	Sessions  *session.Manager
	Validator CredentialValidator
	Accounts  AccountGetter
	Rehasher  PasswordRehasher
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

type handler struct {
	validator CredentialValidator
	accounts  AccountGetter
	rehasher  PasswordRehasher
	metrics   *observability.Metrics
	logger    *slog.Logger
	pages     map[string]*template.Template
}

type pageData struct {
	Flash string
	Email string
}

// NewHandler builds the HTTP handler. Every request passes through request
// logging and the session middleware before routing.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Sessions == nil || deps.Validator == nil || deps.Accounts == nil {
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("sessions, validator, and accounts are required")
	}
	if deps.Logger == nil {
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("logger is required")
	}

	pages, err := parsePages("home", "login", "account")
	if err != nil {
		return nil, err
	}

	h := &handler{
		validator: deps.Validator,
		accounts:  deps.Accounts,
		rehasher:  deps.Rehasher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		pages:     pages,
	}

	mux := http.NewServeMux()
	h.handle(mux, "GET "+PathHome+"{$}", http.HandlerFunc(h.handleHome))
	h.handle(mux, "GET "+PathLogin, http.HandlerFunc(h.handleLoginPage))
	h.handle(mux, "POST "+PathLogin, http.HandlerFunc(h.handleLogin))
	h.handle(mux, "POST "+PathLogout, http.HandlerFunc(h.handleLogout))
	h.handle(mux, "GET "+PathAccount, session.RequireUser(PathLogin)(http.HandlerFunc(h.handleAccount)))

	return h.instrument(deps.Sessions.Middleware(mux)), nil
}

func parsePages(names ...string) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, oops.Code("WEB_TEMPLATE_INVALID").With("page", name).Wrap(err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.ErrorContext(r.Context(), "render page failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes()) //nolint:errcheck // client went away
}
