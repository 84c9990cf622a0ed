// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package sync

import "sort"

// Keyed is satisfied by every catalog entity: a stable reconciliation
// key, full-value equality, and the activity flag.
type Keyed[T any] interface {
	Key() string
	Equal(T) bool
	IsActive() bool
}

// Delta is the minimal set of changes making the local state match a
// fetched snapshot. Removed holds removal candidates; the store
// deactivates them rather than deleting.
type Delta[T any] struct {
	Added   []T
	Updated []T
	Removed []T
}

// Empty reports whether applying the delta would be a no-op.
func (d Delta[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Diff computes the delta between a fetched snapshot and the current
// local records, both keyed by the entity's stable identifier:
//
//	added   = fetched \ current
//	updated = {k in both : fetched[k] != current[k]}
//	removed = current \ fetched
//
// Comparison is full-value equality, never a partial-field merge. If the
// fetched snapshot carries duplicate keys, the last occurrence wins.
// Results are sorted by key so delta application and logging are
// deterministic.
func Diff[T Keyed[T]](fetched, current []T) Delta[T] {
	currentByKey := make(map[string]T, len(current))
	for _, c := range current {
		currentByKey[c.Key()] = c
	}

	fetchedByKey := make(map[string]T, len(fetched))
	for _, f := range fetched {
		fetchedByKey[f.Key()] = f
	}

	var d Delta[T]
	for key, f := range fetchedByKey {
		c, exists := currentByKey[key]
		switch {
		case !exists:
			d.Added = append(d.Added, f)
		case !f.Equal(c):
			d.Updated = append(d.Updated, f)
		}
	}

	for _, c := range current {
		if _, ok := fetchedByKey[c.Key()]; !ok && c.IsActive() {
			d.Removed = append(d.Removed, c)
		}
	}

	sortByKey(d.Added)
	sortByKey(d.Updated)
	sortByKey(d.Removed)
	return d
}

func sortByKey[T Keyed[T]](s []T) {
	sort.Slice(s, func(i, j int) bool { return s[i].Key() < s[j].Key() })
}
