// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package database implements the local catalog store on embedded DuckDB.
//
// The store persists the reconciled mirror of the upstream catalog:
// channel families, channels, products, product-channel links, upgrade
// paths and subscriptions. All writes go through per-kind delta
// application inside a single transaction, so a failed step never leaves
// partial state of one kind visible to readers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/logging"
)

// DB wraps the DuckDB connection and provides catalog data access.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database file and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists before DuckDB touches the file.
	// 0750 per gosec G301.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Catalog store opened")
	return db, nil
}

// schema creates the catalog tables. Slice-valued fields are stored as
// JSON text; DuckDB list scanning through database/sql is not worth the
// driver coupling for columns we never filter on.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS channel_families (
		label          VARCHAR PRIMARY KEY,
		id             VARCHAR NOT NULL,
		name           VARCHAR NOT NULL,
		channel_labels VARCHAR NOT NULL DEFAULT '[]',
		active         BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS channels (
		label        VARCHAR PRIMARY KEY,
		name         VARCHAR NOT NULL,
		parent_label VARCHAR NOT NULL DEFAULT '',
		family_label VARCHAR NOT NULL DEFAULT '',
		arch         VARCHAR NOT NULL DEFAULT '',
		product_ids  VARCHAR NOT NULL DEFAULT '[]',
		repositories VARCHAR NOT NULL DEFAULT '[]',
		active       BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id              VARCHAR PRIMARY KEY,
		name            VARCHAR NOT NULL,
		version         VARCHAR NOT NULL DEFAULT '',
		arch            VARCHAR NOT NULL DEFAULT '',
		channel_labels  VARCHAR NOT NULL DEFAULT '[]',
		extension_ids   VARCHAR NOT NULL DEFAULT '[]',
		predecessor_ids VARCHAR NOT NULL DEFAULT '[]',
		active          BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS product_channels (
		product_id    VARCHAR NOT NULL,
		channel_label VARCHAR NOT NULL,
		active        BOOLEAN NOT NULL DEFAULT true,
		PRIMARY KEY (product_id, channel_label)
	)`,
	`CREATE TABLE IF NOT EXISTS upgrade_paths (
		from_product_id VARCHAR NOT NULL,
		to_product_id   VARCHAR NOT NULL,
		active          BOOLEAN NOT NULL DEFAULT true,
		PRIMARY KEY (from_product_id, to_product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id           VARCHAR PRIMARY KEY,
		product_id   VARCHAR NOT NULL,
		organization VARCHAR NOT NULL DEFAULT '',
		starts_at    TIMESTAMP,
		expires_at   TIMESTAMP,
		active       BOOLEAN NOT NULL DEFAULT true
	)`,
}

func (db *DB) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	logging.Info().Msg("Closing catalog store")
	return db.conn.Close()
}
