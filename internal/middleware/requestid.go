// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package middleware provides the HTTP middleware stack: request IDs,
// JWT authentication, and Prometheus request metrics.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/catalogus/internal/logging"
)

// RequestID assigns each request a unique ID, propagated via the
// X-Request-ID header and the request context for log correlation. An ID
// supplied by an upstream proxy is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
