// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package main is the entry point for the Catalogus server.
//
// Catalogus mirrors a vendor's software catalog (channel families,
// channels, products, upgrade paths, subscriptions) into a local DuckDB
// store and keeps it reconciled against the vendor's catalog API.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml, and
//     CATALOGUS_* environment variables
//  2. Local store: DuckDB catalog database
//  3. Migration sentinel: BadgerDB store recording the one-way NCC to
//     SCC backend switch
//  4. Upstream client: rate-limited, circuit-broken catalog API client
//  5. Event bus: in-process Watermill pub/sub with an audit consumer
//  6. Supervisor tree: HTTP server, audit consumer, and the optional
//     periodic refresh loop under suture supervision
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server stops
// accepting connections, in-flight requests drain within the configured
// timeout, then the event bus, sentinel, and database close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/catalogus/internal/api"
	"github.com/tomtom215/catalogus/internal/catalog"
	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/database"
	"github.com/tomtom215/catalogus/internal/events"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/middleware"
	"github.com/tomtom215/catalogus/internal/migration"
	"github.com/tomtom215/catalogus/internal/supervisor"
	"github.com/tomtom215/catalogus/internal/supervisor/services"
	"github.com/tomtom215/catalogus/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("catalog_url", cfg.Catalog.BaseURL).
		Bool("auth_enabled", cfg.AuthEnabled()).
		Bool("refresh_enabled", cfg.Sync.RefreshEnabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	sentinel, err := migration.NewBadgerSentinel(&cfg.Sentinel)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open migration sentinel store")
	}
	defer func() {
		if err := sentinel.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing sentinel store")
		}
	}()

	client := catalog.NewClient(&cfg.Catalog)

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	manager := sync.NewManager(db, client, bus)
	gate := migration.NewGate(sentinel, db)
	auth := middleware.NewAuthenticator(&cfg.Security)

	handler := api.NewHandler(cfg, manager, gate, auth, bus, db)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.NewRouter(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddSyncService(events.NewAuditConsumer(bus))

	if cfg.Sync.RefreshEnabled {
		tree.AddSyncService(services.NewRefreshService(
			manager,
			cfg.Sync.RefreshInterval,
			cfg.Sync.RetryAttempts,
			cfg.Sync.RetryDelay,
		))
		logging.Info().
			Dur("interval", cfg.Sync.RefreshInterval).
			Msg("Periodic refresh enabled")
	}

	logging.Info().Str("addr", server.Addr).Msg("Starting Catalogus")

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	stop()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor shutdown error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Catalogus stopped")
}
