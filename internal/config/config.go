// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package config loads and validates the Catalogus configuration from
// layered sources: built-in defaults, an optional YAML config file, and
// CATALOGUS_* environment variables (highest priority).
package config

import (
	"time"
)

// Config is the root configuration for the Catalogus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Sentinel  SentinelConfig  `koanf:"sentinel"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Sync      SyncConfig      `koanf:"sync"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the embedded DuckDB catalog store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SentinelConfig configures the badger store holding the migration
// sentinel.
type SentinelConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// CatalogConfig configures access to the upstream catalog service.
// Username and Password are the mirror credentials issued by the vendor.
type CatalogConfig struct {
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles upstream calls. 0 disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`

	// Breaker settings for the upstream circuit breaker.
	BreakerEnabled bool          `koanf:"breaker_enabled"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// SyncConfig configures the optional periodic full refresh. The sync
// engine itself never self-schedules; the supervised refresh service is
// the scheduler.
type SyncConfig struct {
	RefreshEnabled  bool          `koanf:"refresh_enabled"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	RetryAttempts   int           `koanf:"retry_attempts" validate:"min=1"`
	RetryDelay      time.Duration `koanf:"retry_delay"`
}

// SecurityConfig configures authentication for the API surface.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Required outside development.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AdminUsername / AdminPasswordHash are the credentials accepted by
	// /auth/login. The hash is a bcrypt hash, never a plaintext password.
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// TelemetryConfig configures the Prometheus metrics endpoint.
type TelemetryConfig struct {
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8216,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/catalogus.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Sentinel: SentinelConfig{
			Path: "/data/sentinel",
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://scc.suse.com/connect",
			Username:          "",
			Password:          "",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 5,
			BreakerEnabled:    true,
			BreakerTimeout:    2 * time.Minute,
		},
		Sync: SyncConfig{
			RefreshEnabled:  false,
			RefreshInterval: 24 * time.Hour,
			RetryAttempts:   3,
			RetryDelay:      5 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPasswordHash: "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
		},
	}
}
