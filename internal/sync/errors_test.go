// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package sync

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/catalogus/internal/models"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want func(error) bool
	}{
		{"fetch", fetchErr(models.KindChannel, errors.New("timeout")), IsFetch},
		{"store", storeErr(models.KindProduct, errors.New("disk full")), IsStore},
		{"invariant", invariantErr(models.KindSubscription, "unknown product"), IsInvariant},
		{"not found", notFoundErr(models.KindChannel, "no such channel"), IsNotFound},
	}

	predicates := map[string]func(error) bool{
		"fetch":     IsFetch,
		"store":     IsStore,
		"invariant": IsInvariant,
		"not found": IsNotFound,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.want(tt.err) {
				t.Errorf("predicate for %s should match", tt.name)
			}
			// Exactly one predicate matches.
			for name, pred := range predicates {
				if name != tt.name && pred(tt.err) {
					t.Errorf("predicate %s should not match a %s error", name, tt.name)
				}
			}
		})
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	inner := notFoundErr(models.KindChannel, "no such channel")
	wrapped := fmt.Errorf("refresh aborted at channel: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("predicate should see through fmt.Errorf wrapping")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("predicate must not match untyped errors")
	}
	if IsNotFound(nil) {
		t.Error("predicate must not match nil")
	}
}

func TestErrorMessageNamesStepAndKind(t *testing.T) {
	err := invariantErr(models.KindUpgradePath, "unknown product %s", "p-1")
	msg := err.Error()
	if !strings.Contains(msg, string(models.KindUpgradePath)) {
		t.Errorf("message should name the step, got %q", msg)
	}
	if !strings.Contains(msg, string(KindInvariant)) {
		t.Errorf("message should name the error kind, got %q", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fetchErr(models.KindProduct, cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the underlying cause")
	}
}
