// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package metrics provides Prometheus instrumentation for sync steps,
// the migration gate, the upstream catalog client, and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync metrics
	SyncStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_sync_step_duration_seconds",
			Help:    "Duration of catalog sync steps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step", "outcome"},
	)

	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_sync_records_total",
			Help: "Total reconciled records by step and change type",
		},
		[]string{"step", "change"}, // change: added, updated, deactivated
	)

	// Migration metrics
	MigrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogus_migrations_total",
			Help: "Total completed backend migrations (at most 1 per deployment)",
		},
	)

	// Upstream catalog client metrics
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_catalog_request_duration_seconds",
			Help:    "Duration of upstream catalog requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogus_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_events_published_total",
			Help: "Total events published to the in-process event bus",
		},
		[]string{"topic"},
	)
)

// ObserveSyncStep records one sync step execution.
func ObserveSyncStep(step string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SyncStepDuration.WithLabelValues(step, outcome).Observe(duration.Seconds())
}

// AddSyncRecords records the delta sizes applied by a successful step.
func AddSyncRecords(step string, added, updated, deactivated int) {
	SyncRecordsTotal.WithLabelValues(step, "added").Add(float64(added))
	SyncRecordsTotal.WithLabelValues(step, "updated").Add(float64(updated))
	SyncRecordsTotal.WithLabelValues(step, "deactivated").Add(float64(deactivated))
}

// ObserveCatalogRequest records one upstream catalog request.
func ObserveCatalogRequest(endpoint string, statusCode int, duration time.Duration) {
	CatalogRequestDuration.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

// ObserveAPIRequest records one API request.
func ObserveAPIRequest(method, path string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
