// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package sync

import (
	"errors"
	"fmt"

	"github.com/tomtom215/catalogus/internal/models"
)

// ErrorKind classifies sync failures so callers can branch on the class
// rather than string-matching messages.
type ErrorKind string

const (
	// KindFetch: the upstream catalog call failed. The step is retriable
	// with no side effects, since fetches happen before any write.
	KindFetch ErrorKind = "fetch"

	// KindNotFound: a referenced entity does not exist upstream.
	KindNotFound ErrorKind = "not_found"

	// KindInvariant: applying the delta would violate a referential
	// invariant. The kind's write is aborted; other kinds already
	// committed in the same run stay committed.
	KindInvariant ErrorKind = "invariant"

	// KindStore: the local store read or write failed. Safe to retry.
	KindStore ErrorKind = "store"
)

// Error is the typed failure returned by every sync operation. It always
// names the entity kind being reconciled so operators know which step to
// retry.
type Error struct {
	Kind ErrorKind
	Step models.EntityKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sync %s: %s: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("sync %s: %s", e.Step, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func fetchErr(step models.EntityKind, err error) error {
	return &Error{Kind: KindFetch, Step: step, Err: err}
}

func storeErr(step models.EntityKind, err error) error {
	return &Error{Kind: KindStore, Step: step, Err: err}
}

func invariantErr(step models.EntityKind, format string, args ...interface{}) error {
	return &Error{Kind: KindInvariant, Step: step, Err: fmt.Errorf(format, args...)}
}

func notFoundErr(step models.EntityKind, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Step: step, Err: fmt.Errorf(format, args...)}
}

func kindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound sync error.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsInvariant reports whether err is a referential-invariant violation.
func IsInvariant(err error) bool { return kindOf(err) == KindInvariant }

// IsFetch reports whether err is an upstream fetch failure.
func IsFetch(err error) bool { return kindOf(err) == KindFetch }

// IsStore reports whether err is a local store failure.
func IsStore(err error) bool { return kindOf(err) == KindStore }
