// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package models defines the catalog entities mirrored from the upstream
// vendor catalog service, plus the shared API envelope types.
//
// Every entity carries a stable external key (label or vendor ID) and an
// Active flag. Entities absent from a fresh upstream snapshot are
// deactivated rather than deleted so existing local references stay valid.
package models

import (
	"sort"
	"time"
)

// EntityKind identifies one reconcilable entity kind in the local store.
type EntityKind string

const (
	KindChannelFamily  EntityKind = "channel_family"
	KindChannel        EntityKind = "channel"
	KindProduct        EntityKind = "product"
	KindProductChannel EntityKind = "product_channel"
	KindUpgradePath    EntityKind = "upgrade_path"
	KindSubscription   EntityKind = "subscription"
)

// ChannelFamily groups related channels for entitlement bucketing.
type ChannelFamily struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Name          string   `json:"name"`
	ChannelLabels []string `json:"channel_labels"`
	Active        bool     `json:"active"`
}

// Key returns the stable identifier for reconciliation.
func (f ChannelFamily) Key() string { return f.Label }

// IsActive reports whether the record is live in the local mirror.
func (f ChannelFamily) IsActive() bool { return f.Active }

// Equal reports full-value equality. ChannelLabels is a set: order is
// irrelevant.
func (f ChannelFamily) Equal(o ChannelFamily) bool {
	return f.ID == o.ID &&
		f.Label == o.Label &&
		f.Name == o.Name &&
		f.Active == o.Active &&
		equalStringSets(f.ChannelLabels, o.ChannelLabels)
}

// Repository is an upstream content repository backing a channel.
type Repository struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Channel is a named collection of installable content tied to products.
// ParentLabel is a weak reference by label and may be empty for base
// channels. A channel is available when all of its repositories are
// accessible with the caller's subscriptions.
type Channel struct {
	Label        string   `json:"label"`
	Name         string   `json:"name"`
	ParentLabel  string   `json:"parent_label,omitempty"`
	FamilyLabel  string   `json:"family_label,omitempty"`
	Arch         string   `json:"arch,omitempty"`
	ProductIDs   []string `json:"product_ids"`
	Repositories []string `json:"repositories"`
	Active       bool     `json:"active"`
}

func (c Channel) Key() string { return c.Label }

func (c Channel) IsActive() bool { return c.Active }

func (c Channel) Equal(o Channel) bool {
	return c.Label == o.Label &&
		c.Name == o.Name &&
		c.ParentLabel == o.ParentLabel &&
		c.FamilyLabel == o.FamilyLabel &&
		c.Arch == o.Arch &&
		c.Active == o.Active &&
		equalStringSets(c.ProductIDs, o.ProductIDs) &&
		equalStringSets(c.Repositories, o.Repositories)
}

// Product is a vendor product in the catalog. PredecessorIDs holds the
// vendor-declared online migration predecessors used to derive upgrade
// paths. ExtensionIDs are add-on products.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Arch           string   `json:"arch"`
	ChannelLabels  []string `json:"channel_labels"`
	ExtensionIDs   []string `json:"extension_ids"`
	PredecessorIDs []string `json:"predecessor_ids,omitempty"`
	Active         bool     `json:"active"`
}

func (p Product) Key() string { return p.ID }

func (p Product) IsActive() bool { return p.Active }

func (p Product) Equal(o Product) bool {
	return p.ID == o.ID &&
		p.Name == o.Name &&
		p.Version == o.Version &&
		p.Arch == o.Arch &&
		p.Active == o.Active &&
		equalStringSets(p.ChannelLabels, o.ChannelLabels) &&
		equalStringSets(p.ExtensionIDs, o.ExtensionIDs) &&
		equalStringSets(p.PredecessorIDs, o.PredecessorIDs)
}

// ProductChannel links a product to a channel it provides.
type ProductChannel struct {
	ProductID    string `json:"product_id"`
	ChannelLabel string `json:"channel_label"`
	Active       bool   `json:"active"`
}

func (pc ProductChannel) Key() string { return pc.ProductID + "/" + pc.ChannelLabel }

func (pc ProductChannel) IsActive() bool { return pc.Active }

func (pc ProductChannel) Equal(o ProductChannel) bool { return pc == o }

// UpgradePath is a directed edge between two products. Self-loops are
// rejected during reconciliation.
type UpgradePath struct {
	FromProductID string `json:"from_product_id"`
	ToProductID   string `json:"to_product_id"`
	Active        bool   `json:"active"`
}

func (u UpgradePath) Key() string { return u.FromProductID + "->" + u.ToProductID }

func (u UpgradePath) IsActive() bool { return u.Active }

func (u UpgradePath) Equal(o UpgradePath) bool { return u == o }

// Subscription entitles an organization to a product for a validity
// window.
type Subscription struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Organization string    `json:"organization"`
	StartsAt     time.Time `json:"starts_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Active       bool      `json:"active"`
}

func (s Subscription) Key() string { return s.ID }

func (s Subscription) IsActive() bool { return s.Active }

// Equal compares validity timestamps at microsecond precision, the
// finest resolution the catalog store can hold. Sub-microsecond digits
// in upstream data must not register as a change on every sync.
func (s Subscription) Equal(o Subscription) bool {
	return s.ID == o.ID &&
		s.ProductID == o.ProductID &&
		s.Organization == o.Organization &&
		s.StartsAt.Truncate(time.Microsecond).Equal(o.StartsAt.Truncate(time.Microsecond)) &&
		s.ExpiresAt.Truncate(time.Microsecond).Equal(o.ExpiresAt.Truncate(time.Microsecond)) &&
		s.Active == o.Active
}

// ListedProduct is the read-only projection returned by the products
// listing: a product joined with its extensions and channel availability.
type ListedProduct struct {
	Product    Product   `json:"product"`
	Extensions []Product `json:"extensions"`
	Available  bool      `json:"available"`
}

// ListedChannel is the read-only projection returned by the channels
// listing: a channel with its upstream availability status.
type ListedChannel struct {
	Channel   Channel `json:"channel"`
	Available bool    `json:"available"`
}

// equalStringSets compares two string slices as sets.
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
