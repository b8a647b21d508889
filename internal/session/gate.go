// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type userIDContextKey struct{}

// RequireUser admits requests whose session is bound to a user and
// redirects everyone else to loginPath with 303 See Other. Admitted
// requests carry the user ID, see UserIDFromContext.
//
// It must run inside Manager.Middleware.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := FromContext(r.Context())
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			userID, ok := sess.UserID()
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), userIDContextKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the user admitted by RequireUser.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(uuid.UUID)
	return id, ok
}
