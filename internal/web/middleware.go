// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries the request ID on responses.
const HeaderRequestID = "X-Request-ID"

// unmatchedRoute labels requests no route accepted.
const unmatchedRoute = "unmatched"

type requestInfoKey struct{}

// requestInfo is filled in as the request moves through the handler chain.
type requestInfo struct {
	id    string
	route string
}

// RequestIDFromContext returns the ID assigned to the current request.
func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// handle registers h on mux under pattern and records the pattern as the
// route label of requests it serves.
func (h *handler) handle(mux *http.ServeMux, pattern string, next http.Handler) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
			info.route = pattern
		}
		next.ServeHTTP(w, r)
	}))
}

// instrument assigns a request ID, then logs and counts each request.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &requestInfo{id: ulid.Make().String(), route: unmatchedRoute}
		ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
		w.Header().Set(HeaderRequestID, info.id)

		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

		if h.metrics != nil {
			h.metrics.RequestsTotal.WithLabelValues(info.route, strconv.Itoa(m.Code)).Inc()
		}
		h.logger.InfoContext(ctx, "http request",
			"request_id", info.id,
			"method", r.Method,
			"route", info.route,
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written,
		)
	})
}
