// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package migration

import (
	"context"
	"testing"

	"github.com/tomtom215/catalogus/internal/config"
)

func TestBadgerSentinel(t *testing.T) {
	cfg := &config.SentinelConfig{Path: t.TempDir()}
	ctx := context.Background()

	s, err := NewBadgerSentinel(cfg)
	if err != nil {
		t.Fatalf("NewBadgerSentinel() error = %v", err)
	}

	set, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if set {
		t.Error("fresh sentinel store should read unset")
	}

	if err := s.Write(ctx); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Write(ctx); err != nil {
		t.Fatalf("second Write() error = %v (must be idempotent)", err)
	}

	set, err = s.Read(ctx)
	if err != nil {
		t.Fatalf("Read() after write error = %v", err)
	}
	if !set {
		t.Error("sentinel should read set after write")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The sentinel survives a reopen.
	s2, err := NewBadgerSentinel(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	set, err = s2.Read(ctx)
	if err != nil {
		t.Fatalf("Read() after reopen error = %v", err)
	}
	if !set {
		t.Error("sentinel must persist across restarts")
	}
}
