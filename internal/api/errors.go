// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"net/http"

	"github.com/tomtom215/catalogus/internal/sync"
)

// httpStatusFor maps a sync error to an HTTP status and error code.
// Unrecognized errors are treated as internal failures.
func httpStatusFor(err error) (int, string) {
	switch {
	case sync.IsNotFound(err):
		return http.StatusNotFound, "NOT_FOUND"
	case sync.IsInvariant(err):
		return http.StatusConflict, "INVARIANT_ERROR"
	case sync.IsFetch(err):
		return http.StatusBadGateway, "FETCH_ERROR"
	case sync.IsStore(err):
		return http.StatusInternalServerError, "STORE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
