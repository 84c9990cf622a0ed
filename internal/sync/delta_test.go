// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package sync

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/catalogus/internal/models"
)

func family(label, name string, active bool) models.ChannelFamily {
	return models.ChannelFamily{ID: "id-" + label, Label: label, Name: name, Active: active}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		fetched []models.ChannelFamily
		current []models.ChannelFamily
		want    Delta[models.ChannelFamily]
	}{
		{
			name:    "all new",
			fetched: []models.ChannelFamily{family("a", "A", true), family("b", "B", true)},
			current: nil,
			want: Delta[models.ChannelFamily]{
				Added: []models.ChannelFamily{family("a", "A", true), family("b", "B", true)},
			},
		},
		{
			name:    "unchanged records produce empty delta",
			fetched: []models.ChannelFamily{family("a", "A", true)},
			current: []models.ChannelFamily{family("a", "A", true)},
			want:    Delta[models.ChannelFamily]{},
		},
		{
			name:    "changed record is updated",
			fetched: []models.ChannelFamily{family("a", "A renamed", true)},
			current: []models.ChannelFamily{family("a", "A", true)},
			want: Delta[models.ChannelFamily]{
				Updated: []models.ChannelFamily{family("a", "A renamed", true)},
			},
		},
		{
			name:    "active record absent upstream is removed",
			fetched: nil,
			current: []models.ChannelFamily{family("a", "A", true)},
			want: Delta[models.ChannelFamily]{
				Removed: []models.ChannelFamily{family("a", "A", true)},
			},
		},
		{
			name:    "inactive record absent upstream is not removed again",
			fetched: nil,
			current: []models.ChannelFamily{family("a", "A", false)},
			want:    Delta[models.ChannelFamily]{},
		},
		{
			name:    "inactive record reappearing upstream is reactivated via update",
			fetched: []models.ChannelFamily{family("a", "A", true)},
			current: []models.ChannelFamily{family("a", "A", false)},
			want: Delta[models.ChannelFamily]{
				Updated: []models.ChannelFamily{family("a", "A", true)},
			},
		},
		{
			name: "duplicate fetched key last occurrence wins",
			fetched: []models.ChannelFamily{
				family("a", "A first", true),
				family("a", "A second", true),
			},
			current: nil,
			want: Delta[models.ChannelFamily]{
				Added: []models.ChannelFamily{family("a", "A second", true)},
			},
		},
		{
			name: "results sorted by key",
			fetched: []models.ChannelFamily{
				family("z", "Z", true),
				family("a", "A", true),
			},
			current: nil,
			want: Delta[models.ChannelFamily]{
				Added: []models.ChannelFamily{family("a", "A", true), family("z", "Z", true)},
			},
		},
		{
			name: "mixed",
			fetched: []models.ChannelFamily{
				family("kept", "Kept", true),
				family("changed", "Changed v2", true),
				family("new", "New", true),
			},
			current: []models.ChannelFamily{
				family("kept", "Kept", true),
				family("changed", "Changed", true),
				family("gone", "Gone", true),
			},
			want: Delta[models.ChannelFamily]{
				Added:   []models.ChannelFamily{family("new", "New", true)},
				Updated: []models.ChannelFamily{family("changed", "Changed v2", true)},
				Removed: []models.ChannelFamily{family("gone", "Gone", true)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.fetched, tt.current)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffSliceFieldsComparedAsSets(t *testing.T) {
	fetched := []models.ChannelFamily{{
		ID: "id-a", Label: "a", Name: "A", Active: true,
		ChannelLabels: []string{"x", "y"},
	}}
	current := []models.ChannelFamily{{
		ID: "id-a", Label: "a", Name: "A", Active: true,
		ChannelLabels: []string{"y", "x"},
	}}

	if got := Diff(fetched, current); !got.Empty() {
		t.Errorf("expected empty delta for reordered set fields, got %+v", got)
	}
}

// The store holds subscription timestamps at microsecond resolution.
// A sub-microsecond difference between the fetched row and the stored
// row is not a change. Anything else re-writes the row on every sync.
func TestDiffSubscriptionTimestampPrecision(t *testing.T) {
	starts := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	fetched := []models.Subscription{{
		ID: "s1", ProductID: "p-1", Organization: "acme",
		StartsAt: starts, ExpiresAt: starts.AddDate(1, 0, 0), Active: true,
	}}
	current := []models.Subscription{{
		ID: "s1", ProductID: "p-1", Organization: "acme",
		StartsAt:  starts.Truncate(time.Microsecond),
		ExpiresAt: starts.AddDate(1, 0, 0).Truncate(time.Microsecond),
		Active:    true,
	}}

	if got := Diff(fetched, current); !got.Empty() {
		t.Errorf("expected empty delta for sub-microsecond difference, got %+v", got)
	}
}

func TestDeltaEmpty(t *testing.T) {
	var d Delta[models.ChannelFamily]
	if !d.Empty() {
		t.Error("zero delta should be empty")
	}
	d.Added = []models.ChannelFamily{family("a", "A", true)}
	if d.Empty() {
		t.Error("delta with additions should not be empty")
	}
}
