// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate is
// threadsafe and caches struct metadata, so a single instance is correct.
var validate = validator.New()

// Validate checks struct tags and cross-field rules. It returns an error
// naming every failing field so operators can fix the config in one pass.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("%s: failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	errs = append(errs, c.validateSecurity()...)
	errs = append(errs, c.validateSync()...)

	return errors.Join(errs...)
}

// validateSecurity enforces rules the struct tags cannot express.
func (c *Config) validateSecurity() []error {
	var errs []error

	if c.Security.AdminUsername != "" {
		if c.Security.JWTSecret == "" {
			errs = append(errs, errors.New("security.jwt_secret is required when security.admin_username is set"))
		}
		if c.Security.AdminPasswordHash == "" {
			errs = append(errs, errors.New("security.admin_password_hash is required when security.admin_username is set"))
		}
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		errs = append(errs, errors.New("security.jwt_secret must be at least 32 characters"))
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("security.rate_limit_window must be positive"))
	}

	return errs
}

func (c *Config) validateSync() []error {
	var errs []error

	if c.Sync.RefreshEnabled && c.Sync.RefreshInterval < time.Minute {
		errs = append(errs, errors.New("sync.refresh_interval must be at least 1m when refresh is enabled"))
	}
	if c.Sync.RetryDelay < 0 {
		errs = append(errs, errors.New("sync.retry_delay must not be negative"))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, errors.New("catalog.timeout must be positive"))
	}

	return errs
}

// AuthEnabled reports whether the API requires authentication. Auth is
// active whenever a JWT secret is configured.
func (c *Config) AuthEnabled() bool {
	return c.Security.JWTSecret != ""
}
