// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package api exposes the catalog, sync, and migration operations over
// a chi-routed REST surface.
package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/middleware"
	"github.com/tomtom215/catalogus/internal/migration"
	"github.com/tomtom215/catalogus/internal/models"
	"github.com/tomtom215/catalogus/internal/sync"
)

// MigrationPublisher announces completed backend migrations.
type MigrationPublisher interface {
	PublishMigrationCompleted(ctx context.Context) error
}

// Pinger reports whether the catalog store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the collaborators behind the HTTP surface.
type Handler struct {
	cfg       *config.Config
	manager   *sync.Manager
	gate      *migration.Gate
	auth      *middleware.Authenticator
	publisher MigrationPublisher
	db        Pinger
}

// NewHandler creates a Handler.
func NewHandler(cfg *config.Config, manager *sync.Manager, gate *migration.Gate, auth *middleware.Authenticator, publisher MigrationPublisher, db Pinger) *Handler {
	return &Handler{
		cfg:       cfg,
		manager:   manager,
		gate:      gate,
		auth:      auth,
		publisher: publisher,
		db:        db,
	}
}

// ListProducts returns the active product catalog with availability and
// extension trees resolved from local state.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	products, err := h.manager.ListProducts(r.Context())
	if err != nil {
		status, code := httpStatusFor(err)
		respondError(w, status, code, "Failed to list products", err)
		return
	}
	respondData(w, products, start)
}

// ListChannels returns the active channel catalog with availability
// resolved from local state.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	channels, err := h.manager.ListChannels(r.Context())
	if err != nil {
		status, code := httpStatusFor(err)
		respondError(w, status, code, "Failed to list channels", err)
		return
	}
	respondData(w, channels, start)
}

// syncStep runs one reconciliation step and reports the step record.
func (h *Handler) syncStep(w http.ResponseWriter, r *http.Request, kind models.EntityKind, step func(context.Context) error) {
	start := time.Now()
	if err := step(r.Context()); err != nil {
		status, code := httpStatusFor(err)
		respondError(w, status, code, "Sync step failed", err)
		return
	}
	respondData(w, stepRecord(h.manager.Status(), kind), start)
}

func stepRecord(status models.SyncStatus, kind models.EntityKind) interface{} {
	for _, s := range status.Steps {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// SyncChannelFamilies reconciles channel families against upstream.
func (h *Handler) SyncChannelFamilies(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindChannelFamily, h.manager.SyncChannelFamilies)
}

// SyncChannels reconciles channels against upstream.
func (h *Handler) SyncChannels(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindChannel, h.manager.SyncChannels)
}

// SyncProducts reconciles products against upstream.
func (h *Handler) SyncProducts(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindProduct, h.manager.SyncProducts)
}

// SyncProductChannels reconciles product-channel links.
func (h *Handler) SyncProductChannels(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindProductChannel, h.manager.SyncProductChannels)
}

// SyncUpgradePaths reconciles upgrade paths.
func (h *Handler) SyncUpgradePaths(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindUpgradePath, h.manager.SyncUpgradePaths)
}

// SyncSubscriptions reconciles subscriptions.
func (h *Handler) SyncSubscriptions(w http.ResponseWriter, r *http.Request) {
	h.syncStep(w, r, models.KindSubscription, h.manager.SyncSubscriptions)
}

// Refresh runs the full refresh sequence in dependency order.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.manager.Refresh(r.Context()); err != nil {
		status, code := httpStatusFor(err)
		respondError(w, status, code, "Refresh failed", err)
		return
	}
	respondData(w, h.manager.Status(), start)
}

// SyncStatus returns the per-step outcome of the most recent sync runs.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, h.manager.Status(), start)
}

// AddChannel mirrors a single channel by label.
func (h *Handler) AddChannel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	label := chi.URLParam(r, "label")
	if label == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Channel label is required", nil)
		return
	}
	if err := h.manager.AddChannel(r.Context(), label); err != nil {
		status, code := httpStatusFor(err)
		respondError(w, status, code, "Failed to add channel", err)
		return
	}
	respondData(w, map[string]string{"label": label, "result": "added"}, start)
}

// PerformMigration switches the catalog backend, clearing vendor-owned
// product data exactly once.
func (h *Handler) PerformMigration(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.gate.Migrate(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "MIGRATION_ERROR", "Migration failed", err)
		return
	}
	if h.publisher != nil {
		if err := h.publisher.PublishMigrationCompleted(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("Failed to publish migration event")
		}
	}
	backend, err := h.gate.CurrentBackend(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "MIGRATION_ERROR", "Failed to read backend after migration", err)
		return
	}
	respondData(w, map[string]string{"backend": string(backend)}, start)
}

// CurrentBackend reports which catalog backend the server is on.
func (h *Handler) CurrentBackend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	backend, err := h.gate.CurrentBackend(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "MIGRATION_ERROR", "Failed to read backend", err)
		return
	}
	respondData(w, map[string]string{"backend": string(backend)}, start)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies the configured admin credentials and issues a JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required", nil)
		return
	}

	sec := &h.cfg.Security
	userMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(sec.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(sec.AdminPasswordHash), []byte(req.Password))
	if !userMatch || passErr != nil {
		logging.Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Login rejected")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid credentials", nil)
		return
	}

	token, err := h.auth.IssueToken(req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}
	respondData(w, map[string]interface{}{
		"token":      token,
		"expires_in": int(h.cfg.Security.SessionTimeout.Seconds()),
	}, start)
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady reports readiness: the catalog store must answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Catalog store unavailable", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
