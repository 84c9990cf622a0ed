// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package models

import "time"

// APIResponse is the envelope for every HTTP response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - AUTHENTICATION_ERROR: invalid or missing credentials
//   - NOT_FOUND: resource doesn't exist upstream or locally
//   - FETCH_ERROR: upstream catalog fetch failed
//   - INVARIANT_ERROR: delta would violate a referential invariant
//   - STORE_ERROR: local store read/write failed
//   - MIGRATION_ERROR: sentinel write failed
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SyncStepResult records the outcome of a single reconciliation step.
type SyncStepResult struct {
	Kind        EntityKind `json:"kind"`
	Added       int        `json:"added"`
	Updated     int        `json:"updated"`
	Deactivated int        `json:"deactivated"`
	DurationMS  int64      `json:"duration_ms"`
	CompletedAt time.Time  `json:"completed_at"`
	Error       string     `json:"error,omitempty"`
}

// SyncStatus is the projection returned by the sync status endpoint:
// the last observed outcome per step plus the last full refresh time.
type SyncStatus struct {
	LastRefresh time.Time        `json:"last_refresh,omitempty"`
	Steps       []SyncStepResult `json:"steps"`
}
