// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package services

import (
	"context"
	"time"

	"github.com/tomtom215/catalogus/internal/logging"
)

// Refresher runs a full catalog refresh. Satisfied by *sync.Manager.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshService runs the full refresh on a fixed interval. The sync
// engine never schedules itself; this service is the only scheduler.
// A failed refresh is retried up to RetryAttempts times with RetryDelay
// between attempts, then waits for the next tick.
type RefreshService struct {
	refresher     Refresher
	interval      time.Duration
	retryAttempts int
	retryDelay    time.Duration
	name          string
}

// NewRefreshService creates a new periodic refresh service.
func NewRefreshService(refresher Refresher, interval time.Duration, retryAttempts int, retryDelay time.Duration) *RefreshService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &RefreshService{
		refresher:     refresher,
		interval:      interval,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		name:          "refresh-loop",
	}
}

// Serve implements suture.Service. The first refresh runs one interval
// after startup, not immediately, so a crash-looping upstream cannot
// hold the server at boot.
func (s *RefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runWithRetry(ctx)
		}
	}
}

func (s *RefreshService) runWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		err := s.refresher.Refresh(ctx)
		if err == nil {
			logging.Info().Int("attempt", attempt).Msg("Scheduled refresh completed")
			return
		}

		logging.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.retryAttempts).
			Msg("Scheduled refresh failed")

		if attempt == s.retryAttempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}
}

// String implements fmt.Stringer; suture uses this to identify the
// service in log messages.
func (s *RefreshService) String() string {
	return s.name
}
