// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/catalogus/internal/middleware"
)

// NewRouter builds the chi router for the Catalogus API. Catalog and
// admin routes require authentication when a JWT secret is configured;
// health, metrics, and login stay public.
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(h.cfg.Server.Timeout))
	r.Use(middleware.PrometheusMetrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !h.cfg.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
	}

	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)

	if h.cfg.Telemetry.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			if h.cfg.AuthEnabled() {
				r.Use(h.auth.Authenticate)
			}

			r.Get("/products", h.ListProducts)
			r.Get("/channels", h.ListChannels)

			r.Route("/sync", func(r chi.Router) {
				r.Get("/status", h.SyncStatus)
				r.Post("/refresh", h.Refresh)
				r.Post("/channel-families", h.SyncChannelFamilies)
				r.Post("/channels", h.SyncChannels)
				r.Post("/products", h.SyncProducts)
				r.Post("/product-channels", h.SyncProductChannels)
				r.Post("/upgrade-paths", h.SyncUpgradePaths)
				r.Post("/subscriptions", h.SyncSubscriptions)
				r.Post("/channels/{label}", h.AddChannel)
			})

			r.Route("/migration", func(r chi.Router) {
				r.Get("/backend", h.CurrentBackend)
				r.Post("/migrate", h.PerformMigration)
			})
		})
	})

	return r
}
