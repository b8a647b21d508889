// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/session"
	"github.com/yaug/yaug/pkg/errutil"
	"github.com/yaug/yaug/pkg/secret"
)

func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", pageData{})
}

func (h *handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		if _, bound := sess.UserID(); bound {
			http.Redirect(w, r, PathAccount, http.StatusSeeOther)
			return
		}
	}
	h.render(w, r, http.StatusOK, "login", pageData{})
}

// handleLogin authenticates a form post. Every failure, whatever its cause,
// gets the same response.
func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := session.FromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "login without session middleware")
		h.fail(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r)
		return
	}
	// Shape checks only. Anything here must depend on the submitted form
	// alone, never on whether the account exists, since it answers before
	// the constant-cost validation below.
	creds, err := auth.NewCredentials(r.PostForm.Get("email"), secret.New(r.PostForm.Get("password")))
	if err != nil {
		h.fail(w, r)
		return
	}

	outcome := h.validator.Validate(ctx, creds)
	if outcome.Kind() != auth.OutcomeAuthenticated {
		h.fail(w, r)
		return
	}

	userID, _ := outcome.UserID()
	sess.Renew()
	if err := sess.InsertUserID(ctx, userID); err != nil {
		errutil.LogErrorContext(ctx, h.logger, "bind session failed", err)
		h.fail(w, r)
		return
	}

	if outcome.NeedsRehash() && h.rehasher != nil {
		if err := h.rehasher.Rehash(ctx, userID, creds.Password); err != nil {
			errutil.LogErrorContext(ctx, h.logger, "rehash on login failed", err)
		}
	}

	http.Redirect(w, r, PathAccount, http.StatusSeeOther)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusUnauthorized, "login", pageData{Flash: auth.GenericFailureMessage})
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		if err := sess.Destroy(r.Context()); err != nil {
			errutil.LogErrorContext(r.Context(), h.logger, "destroy session failed", err)
		}
	}
	http.Redirect(w, r, PathLogin, http.StatusSeeOther)
}

// handleAccount shows the bound account. A session bound to an account
// that no longer exists is destroyed.
func (h *handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := session.UserIDFromContext(ctx)

	acct, err := h.accounts.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		if sess, ok := session.FromContext(ctx); ok {
			if err := sess.Destroy(ctx); err != nil {
				errutil.LogErrorContext(ctx, h.logger, "destroy session failed", err)
			}
		}
		http.Redirect(w, r, PathLogin, http.StatusSeeOther)
		return
	case err != nil:
		errutil.LogErrorContext(ctx, h.logger, "load account failed", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, http.StatusOK, "account", pageData{Email: acct.Email})
}
