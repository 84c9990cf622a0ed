// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8216 {
		t.Errorf("default port = %d, want 8216", cfg.Server.Port)
	}
	if cfg.Catalog.BaseURL != "https://scc.suse.com/connect" {
		t.Errorf("default catalog url = %s", cfg.Catalog.BaseURL)
	}
	if cfg.Sync.RefreshEnabled {
		t.Error("periodic refresh should default to disabled")
	}
	if cfg.AuthEnabled() {
		t.Error("auth should default to disabled (no JWT secret)")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CATALOGUS_SERVER_PORT", "9000")
	t.Setenv("CATALOGUS_CATALOG_BASE_URL", "https://mirror.example.com/connect")
	t.Setenv("CATALOGUS_CATALOG_USERNAME", "mirror-user")
	t.Setenv("CATALOGUS_LOGGING_LEVEL", "debug")
	t.Setenv("CATALOGUS_SECURITY_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Catalog.BaseURL != "https://mirror.example.com/connect" {
		t.Errorf("catalog url = %s", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Username != "mirror-user" {
		t.Errorf("catalog username = %s", cfg.Catalog.Username)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("cors origin[%d] = %s, want %s", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8300
catalog:
  base_url: https://file.example.com/connect
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	// Env beats file.
	t.Setenv("CATALOGUS_SERVER_PORT", "8400")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8400 {
		t.Errorf("port = %d, want env override 8400", cfg.Server.Port)
	}
	if cfg.Catalog.BaseURL != "https://file.example.com/connect" {
		t.Errorf("catalog url = %s, want file value", cfg.Catalog.BaseURL)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CATALOGUS_SERVER_PORT", "server.port"},
		{"CATALOGUS_CATALOG_BASE_URL", "catalog.base_url"},
		{"CATALOGUS_SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"CATALOGUS_SYNC_REFRESH_INTERVAL", "sync.refresh_interval"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "Port",
		},
		{
			name:    "bad catalog url",
			mutate:  func(c *Config) { c.Catalog.BaseURL = "not a url" },
			wantErr: "BaseURL",
		},
		{
			name:    "admin user without jwt secret",
			mutate:  func(c *Config) { c.Security.AdminUsername = "admin" },
			wantErr: "jwt_secret",
		},
		{
			name: "short jwt secret",
			mutate: func(c *Config) {
				c.Security.JWTSecret = "too-short"
			},
			wantErr: "at least 32 characters",
		},
		{
			name: "refresh interval too small",
			mutate: func(c *Config) {
				c.Sync.RefreshEnabled = true
				c.Sync.RefreshInterval = time.Second
			},
			wantErr: "refresh_interval",
		},
		{
			name:    "zero catalog timeout",
			mutate:  func(c *Config) { c.Catalog.Timeout = 0 },
			wantErr: "catalog.timeout",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAuthEnabled(t *testing.T) {
	cfg := defaultConfig()
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without a secret")
	}
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled with a secret")
	}
}
