// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package sync

import (
	"context"
	"sort"

	"github.com/tomtom215/catalogus/internal/models"
)

// fakeStore is an in-memory Store that applies deltas the same way the
// DuckDB store does: upsert added and updated, deactivate removed.
type fakeStore struct {
	families        map[string]models.ChannelFamily
	channels        map[string]models.Channel
	products        map[string]models.Product
	productChannels map[string]models.ProductChannel
	upgradePaths    map[string]models.UpgradePath
	subscriptions   map[string]models.Subscription

	applyCalls int
	failReads  error
	failWrites error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		families:        make(map[string]models.ChannelFamily),
		channels:        make(map[string]models.Channel),
		products:        make(map[string]models.Product),
		productChannels: make(map[string]models.ProductChannel),
		upgradePaths:    make(map[string]models.UpgradePath),
		subscriptions:   make(map[string]models.Subscription),
	}
}

func sortedValues[T interface{ Key() string }](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (s *fakeStore) ChannelFamilies(context.Context) ([]models.ChannelFamily, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.families), nil
}

func (s *fakeStore) Channels(context.Context) ([]models.Channel, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.channels), nil
}

func (s *fakeStore) Products(context.Context) ([]models.Product, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.products), nil
}

func (s *fakeStore) ProductChannels(context.Context) ([]models.ProductChannel, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.productChannels), nil
}

func (s *fakeStore) UpgradePaths(context.Context) ([]models.UpgradePath, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.upgradePaths), nil
}

func (s *fakeStore) Subscriptions(context.Context) ([]models.Subscription, error) {
	if s.failReads != nil {
		return nil, s.failReads
	}
	return sortedValues(s.subscriptions), nil
}

func applyDelta[T interface{ Key() string }](s *fakeStore, m map[string]T, added, updated, removed []T, deactivate func(*T)) error {
	if s.failWrites != nil {
		return s.failWrites
	}
	s.applyCalls++
	for _, v := range added {
		m[v.Key()] = v
	}
	for _, v := range updated {
		m[v.Key()] = v
	}
	for _, v := range removed {
		row := m[v.Key()]
		deactivate(&row)
		m[v.Key()] = row
	}
	return nil
}

func (s *fakeStore) ApplyChannelFamilyDelta(_ context.Context, added, updated, removed []models.ChannelFamily) error {
	return applyDelta(s, s.families, added, updated, removed, func(f *models.ChannelFamily) { f.Active = false })
}

func (s *fakeStore) ApplyChannelDelta(_ context.Context, added, updated, removed []models.Channel) error {
	return applyDelta(s, s.channels, added, updated, removed, func(c *models.Channel) { c.Active = false })
}

func (s *fakeStore) ApplyProductDelta(_ context.Context, added, updated, removed []models.Product) error {
	return applyDelta(s, s.products, added, updated, removed, func(p *models.Product) { p.Active = false })
}

func (s *fakeStore) ApplyProductChannelDelta(_ context.Context, added, updated, removed []models.ProductChannel) error {
	return applyDelta(s, s.productChannels, added, updated, removed, func(pc *models.ProductChannel) { pc.Active = false })
}

func (s *fakeStore) ApplyUpgradePathDelta(_ context.Context, added, updated, removed []models.UpgradePath) error {
	return applyDelta(s, s.upgradePaths, added, updated, removed, func(u *models.UpgradePath) { u.Active = false })
}

func (s *fakeStore) ApplySubscriptionDelta(_ context.Context, added, updated, removed []models.Subscription) error {
	return applyDelta(s, s.subscriptions, added, updated, removed, func(sub *models.Subscription) { sub.Active = false })
}

// fakeClient serves canned upstream snapshots with per-collection error
// injection.
type fakeClient struct {
	families      []models.ChannelFamily
	channels      []models.Channel
	repositories  []models.Repository
	products      []models.Product
	subscriptions []models.Subscription

	familiesErr      error
	channelsErr      error
	repositoriesErr  error
	productsErr      error
	subscriptionsErr error
}

func (c *fakeClient) ChannelFamilies(context.Context) ([]models.ChannelFamily, error) {
	return c.families, c.familiesErr
}

func (c *fakeClient) Channels(context.Context) ([]models.Channel, error) {
	return c.channels, c.channelsErr
}

func (c *fakeClient) Repositories(context.Context) ([]models.Repository, error) {
	return c.repositories, c.repositoriesErr
}

func (c *fakeClient) Products(context.Context) ([]models.Product, error) {
	return c.products, c.productsErr
}

func (c *fakeClient) Subscriptions(context.Context) ([]models.Subscription, error) {
	return c.subscriptions, c.subscriptionsErr
}

// testCatalog returns a small consistent upstream snapshot: one family,
// a base channel with a child, one product providing both channels with
// a predecessor product, and one subscription.
func testCatalog() *fakeClient {
	return &fakeClient{
		families: []models.ChannelFamily{
			{ID: "fam-1", Label: "sles", Name: "SUSE Linux Enterprise Server"},
		},
		channels: []models.Channel{
			{
				Label: "sles15-pool", Name: "SLES15 Pool", FamilyLabel: "sles",
				Arch: "x86_64", ProductIDs: []string{"p-150"},
				Repositories: []string{"repo-pool"},
			},
			{
				Label: "sles15-updates", Name: "SLES15 Updates", ParentLabel: "sles15-pool",
				FamilyLabel: "sles", Arch: "x86_64", ProductIDs: []string{"p-150"},
				Repositories: []string{"repo-updates"},
			},
		},
		repositories: []models.Repository{
			{Name: "repo-pool", URL: "https://updates.example.com/pool"},
			{Name: "repo-updates", URL: "https://updates.example.com/updates"},
		},
		products: []models.Product{
			{
				ID: "p-120", Name: "SLES", Version: "12", Arch: "x86_64",
				ChannelLabels: []string{},
			},
			{
				ID: "p-150", Name: "SLES", Version: "15", Arch: "x86_64",
				ChannelLabels:  []string{"sles15-pool", "sles15-updates"},
				PredecessorIDs: []string{"p-120"},
			},
		},
		subscriptions: []models.Subscription{
			{ID: "sub-1", ProductID: "p-150", Organization: "acme"},
		},
	}
}
