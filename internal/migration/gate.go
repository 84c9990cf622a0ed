// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package migration tracks the one-time, irreversible switch of the
// catalog sync backend from the legacy NCC protocol to SCC.
//
// The migrated state is a durable existence-based sentinel. Its absence
// means the legacy backend is active; once written it is never removed,
// so the backend can never revert. Migration clears all product-derived
// state first, because SCC product identifiers are incompatible with
// NCC's, and only then writes the sentinel. An interrupted migration is
// safely completed by calling Migrate again.
package migration

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/metrics"
)

// Backend identifies the protocol variant used to talk to the upstream
// catalog.
type Backend string

const (
	// BackendNCC is the legacy backend, active until migration.
	BackendNCC Backend = "NCC"
	// BackendSCC is the current backend, active after migration.
	BackendSCC Backend = "SCC"
)

// SentinelStore persists the single migration marker.
type SentinelStore interface {
	// Read reports whether the sentinel exists.
	Read(ctx context.Context) (bool, error)
	// Write durably records the sentinel. Idempotent.
	Write(ctx context.Context) error
}

// ProductClearer resets all product-derived state in the local store.
type ProductClearer interface {
	ClearProducts(ctx context.Context) error
}

// Gate performs and reports the backend migration. All methods are safe
// for concurrent use; the transition itself is serialized process-wide.
type Gate struct {
	mu       sync.Mutex
	sentinel SentinelStore
	store    ProductClearer
}

// NewGate creates a migration gate over the given sentinel store and
// product store.
func NewGate(sentinel SentinelStore, store ProductClearer) *Gate {
	return &Gate{sentinel: sentinel, store: store}
}

// Migrate performs the NCC to SCC transition: clear all product state,
// then durably write the sentinel. Calling Migrate when the sentinel is
// already set is a no-op success. A retry after interruption (cleared
// but not yet marked) is safe, and re-running never re-clears products.
func (g *Gate) Migrate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	migrated, err := g.sentinel.Read(ctx)
	if err != nil {
		return fmt.Errorf("read migration sentinel: %w", err)
	}
	if migrated {
		logging.Ctx(ctx).Debug().Msg("Backend migration already performed, nothing to do")
		return nil
	}

	if err := g.store.ClearProducts(ctx); err != nil {
		return fmt.Errorf("clear product state: %w", err)
	}

	// The sentinel write must come last: if the process dies between the
	// clear and this write, the next Migrate call repeats the (idempotent)
	// clear and completes the mark.
	if err := g.sentinel.Write(ctx); err != nil {
		return fmt.Errorf("write migration sentinel: %w", err)
	}

	metrics.MigrationsTotal.Inc()
	logging.Ctx(ctx).Info().Msg("Backend migration to SCC completed")
	return nil
}

// CurrentBackend returns the active backend. Pure read, no side effects.
func (g *Gate) CurrentBackend(ctx context.Context) (Backend, error) {
	migrated, err := g.sentinel.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("read migration sentinel: %w", err)
	}
	if migrated {
		return BackendSCC, nil
	}
	return BackendNCC, nil
}
