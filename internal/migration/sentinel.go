// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package migration

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/logging"
)

// sentinelKey is the badger key whose existence marks a completed
// migration. The value is irrelevant.
var sentinelKey = []byte("migration/scc")

// BadgerSentinel stores the migration marker in an embedded badger
// database. Writes are synchronous: the sentinel must survive a crash
// immediately after Migrate returns.
type BadgerSentinel struct {
	db *badger.DB
}

// NewBadgerSentinel opens (or creates) the sentinel store at the
// configured path.
func NewBadgerSentinel(cfg *config.SentinelConfig) (*BadgerSentinel, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open sentinel store at %s: %w", cfg.Path, err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Sentinel store opened")
	return &BadgerSentinel{db: db}, nil
}

// Read reports whether the sentinel exists.
func (s *BadgerSentinel) Read(_ context.Context) (bool, error) {
	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(sentinelKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read sentinel: %w", err)
	}
	return exists, nil
}

// Write durably records the sentinel. Writing an existing sentinel is a
// no-op by construction.
func (s *BadgerSentinel) Write(_ context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sentinelKey, []byte{1})
	})
	if err != nil {
		return fmt.Errorf("write sentinel: %w", err)
	}
	return nil
}

// Close closes the underlying badger database.
func (s *BadgerSentinel) Close() error {
	return s.db.Close()
}
