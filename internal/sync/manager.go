// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

/*
manager.go - Sync Manager and Step Orchestration

The Manager sequences catalog reconciliation against the local store. Each
step is independently callable and idempotent: it fetches a snapshot from
the upstream catalog, computes the delta against current local records,
verifies referential invariants, and applies the delta atomically for that
entity kind.

Steps and their dependency order for a full refresh:

	channel families -> channels -> products -> product-channel links
	-> upgrade paths -> subscriptions

Thread safety:
  - one mutex per entity kind serializes concurrent runs of the same step
  - different kinds may reconcile in parallel; dependency ordering is the
    caller's responsibility, as in a composite Refresh
  - mu protects the recorded per-step status
*/
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/metrics"
	"github.com/tomtom215/catalogus/internal/models"
)

// Store is the local catalog store consumed by the Manager. Implemented
// by database.DB; tests use in-memory fakes.
type Store interface {
	ChannelFamilies(ctx context.Context) ([]models.ChannelFamily, error)
	Channels(ctx context.Context) ([]models.Channel, error)
	Products(ctx context.Context) ([]models.Product, error)
	ProductChannels(ctx context.Context) ([]models.ProductChannel, error)
	UpgradePaths(ctx context.Context) ([]models.UpgradePath, error)
	Subscriptions(ctx context.Context) ([]models.Subscription, error)

	ApplyChannelFamilyDelta(ctx context.Context, added, updated, removed []models.ChannelFamily) error
	ApplyChannelDelta(ctx context.Context, added, updated, removed []models.Channel) error
	ApplyProductDelta(ctx context.Context, added, updated, removed []models.Product) error
	ApplyProductChannelDelta(ctx context.Context, added, updated, removed []models.ProductChannel) error
	ApplyUpgradePathDelta(ctx context.Context, added, updated, removed []models.UpgradePath) error
	ApplySubscriptionDelta(ctx context.Context, added, updated, removed []models.Subscription) error
}

// CatalogClient fetches snapshot collections from the upstream catalog
// service. Implemented by catalog.Client; tests use fakes. Every call is
// a pure read against upstream and may fail with a transport error.
type CatalogClient interface {
	ChannelFamilies(ctx context.Context) ([]models.ChannelFamily, error)
	Channels(ctx context.Context) ([]models.Channel, error)
	Repositories(ctx context.Context) ([]models.Repository, error)
	Products(ctx context.Context) ([]models.Product, error)
	Subscriptions(ctx context.Context) ([]models.Subscription, error)
}

// EventPublisher receives a notification after each successful sync step.
// Publish failures are logged, never propagated: eventing is advisory.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, result models.SyncStepResult) error
}

// Manager orchestrates catalog reconciliation. It holds no entity state
// of its own beyond step bookkeeping; all catalog state lives in the
// Store.
type Manager struct {
	store     Store
	client    CatalogClient
	publisher EventPublisher // optional

	kindMu map[models.EntityKind]*stdsync.Mutex

	mu          stdsync.RWMutex
	stepResults map[models.EntityKind]models.SyncStepResult
	lastRefresh time.Time
}

// refreshOrder is the mandatory step sequence for a composite refresh.
// Each step assumes its predecessors' invariants already hold.
var refreshOrder = []models.EntityKind{
	models.KindChannelFamily,
	models.KindChannel,
	models.KindProduct,
	models.KindProductChannel,
	models.KindUpgradePath,
	models.KindSubscription,
}

// NewManager creates a sync manager. publisher may be nil.
func NewManager(store Store, client CatalogClient, publisher EventPublisher) *Manager {
	kindMu := make(map[models.EntityKind]*stdsync.Mutex, len(refreshOrder))
	for _, kind := range refreshOrder {
		kindMu[kind] = &stdsync.Mutex{}
	}
	return &Manager{
		store:       store,
		client:      client,
		publisher:   publisher,
		kindMu:      kindMu,
		stepResults: make(map[models.EntityKind]models.SyncStepResult),
	}
}

// stepOutcome is what each step reports back for bookkeeping.
type stepOutcome struct {
	added, updated, removed int
}

func (m *Manager) execute(ctx context.Context, kind models.EntityKind, step func(context.Context) (stepOutcome, error)) error {
	mu := m.kindMu[kind]
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	outcome, err := step(ctx)
	duration := time.Since(start)

	result := models.SyncStepResult{
		Kind:        kind,
		Added:       outcome.added,
		Updated:     outcome.updated,
		Deactivated: outcome.removed,
		DurationMS:  duration.Milliseconds(),
		CompletedAt: time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	m.mu.Lock()
	m.stepResults[kind] = result
	m.mu.Unlock()

	metrics.ObserveSyncStep(string(kind), duration, err)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("step", string(kind)).Msg("Sync step failed")
		return err
	}

	logging.Ctx(ctx).Info().
		Str("step", string(kind)).
		Int("added", outcome.added).
		Int("updated", outcome.updated).
		Int("deactivated", outcome.removed).
		Dur("duration", duration).
		Msg("Sync step completed")

	metrics.AddSyncRecords(string(kind), outcome.added, outcome.updated, outcome.removed)

	if m.publisher != nil {
		if pubErr := m.publisher.PublishSyncCompleted(ctx, result); pubErr != nil {
			logging.Ctx(ctx).Warn().Err(pubErr).Str("step", string(kind)).Msg("Failed to publish sync event")
		}
	}
	return nil
}

// SyncChannelFamilies reconciles channel families against upstream.
func (m *Manager) SyncChannelFamilies(ctx context.Context) error {
	return m.execute(ctx, models.KindChannelFamily, func(ctx context.Context) (stepOutcome, error) {
		fetched, err := m.client.ChannelFamilies(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindChannelFamily, err)
		}
		activate(fetched, func(f *models.ChannelFamily) *bool { return &f.Active })

		current, err := m.store.ChannelFamilies(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindChannelFamily, err)
		}

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyChannelFamilyDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindChannelFamily, err)
		}
		return outcomeOf(d), nil
	})
}

// SyncChannels reconciles the available channels against upstream. A
// channel is available when all of its repositories are accessible with
// the configured mirror credentials. Channel families referenced by a
// fetched channel must already be present locally. A fetched channel
// whose parent is not mirrorable is skipped with a warning rather than
// failing the step.
func (m *Manager) SyncChannels(ctx context.Context) error {
	return m.execute(ctx, models.KindChannel, func(ctx context.Context) (stepOutcome, error) {
		fetched, err := m.fetchAvailableChannels(ctx)
		if err != nil {
			return stepOutcome{}, err
		}

		current, err := m.store.Channels(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindChannel, err)
		}

		if err := m.checkFamilyRefs(ctx, fetched); err != nil {
			return stepOutcome{}, err
		}
		fetched = dropOrphanChannels(ctx, fetched, current)

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyChannelDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindChannel, err)
		}
		return outcomeOf(d), nil
	})
}

// SyncProducts reconciles products against upstream.
func (m *Manager) SyncProducts(ctx context.Context) error {
	return m.execute(ctx, models.KindProduct, func(ctx context.Context) (stepOutcome, error) {
		fetched, err := m.client.Products(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindProduct, err)
		}
		activate(fetched, func(p *models.Product) *bool { return &p.Active })

		current, err := m.store.Products(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindProduct, err)
		}

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyProductDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindProduct, err)
		}
		return outcomeOf(d), nil
	})
}

// SyncProductChannels reconciles product-channel links, derived from the
// product ids carried on each available upstream channel. Both endpoints
// must already exist locally or the step fails with an invariant error.
func (m *Manager) SyncProductChannels(ctx context.Context) error {
	return m.execute(ctx, models.KindProductChannel, func(ctx context.Context) (stepOutcome, error) {
		channels, err := m.fetchAvailableChannels(ctx)
		if err != nil {
			return stepOutcome{}, &Error{Kind: kindOf(err), Step: models.KindProductChannel, Err: err}
		}

		products, err := m.store.Products(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindProductChannel, err)
		}
		storedChannels, err := m.store.Channels(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindProductChannel, err)
		}

		productIDs := make(map[string]struct{}, len(products))
		for _, p := range products {
			productIDs[p.ID] = struct{}{}
		}
		channelLabels := make(map[string]struct{}, len(storedChannels))
		for _, c := range storedChannels {
			channelLabels[c.Label] = struct{}{}
		}

		var fetched []models.ProductChannel
		for _, c := range channels {
			for _, pid := range c.ProductIDs {
				if _, ok := productIDs[pid]; !ok {
					return stepOutcome{}, invariantErr(models.KindProductChannel,
						"channel %s references unknown product %s; run the product sync first", c.Label, pid)
				}
				if _, ok := channelLabels[c.Label]; !ok {
					return stepOutcome{}, invariantErr(models.KindProductChannel,
						"link target channel %s is not mirrored locally; run the channel sync first", c.Label)
				}
				fetched = append(fetched, models.ProductChannel{ProductID: pid, ChannelLabel: c.Label, Active: true})
			}
		}

		current, err := m.store.ProductChannels(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindProductChannel, err)
		}

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyProductChannelDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindProductChannel, err)
		}
		return outcomeOf(d), nil
	})
}

// SyncUpgradePaths reconciles upgrade paths, derived from the vendor's
// declared predecessor ids on fetched products. Self-loop paths are
// rejected and never stored. Both endpoints must resolve to locally
// stored products.
func (m *Manager) SyncUpgradePaths(ctx context.Context) error {
	return m.execute(ctx, models.KindUpgradePath, func(ctx context.Context) (stepOutcome, error) {
		upstreamProducts, err := m.client.Products(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindUpgradePath, err)
		}

		stored, err := m.store.Products(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindUpgradePath, err)
		}
		storedIDs := make(map[string]struct{}, len(stored))
		for _, p := range stored {
			storedIDs[p.ID] = struct{}{}
		}

		var fetched []models.UpgradePath
		for _, p := range upstreamProducts {
			for _, pred := range p.PredecessorIDs {
				if pred == p.ID {
					logging.Ctx(ctx).Warn().Str("product", p.ID).Msg("Rejecting self-loop upgrade path")
					continue
				}
				if _, ok := storedIDs[p.ID]; !ok {
					return stepOutcome{}, invariantErr(models.KindUpgradePath,
						"upgrade path target %s is not mirrored locally; run the product sync first", p.ID)
				}
				if _, ok := storedIDs[pred]; !ok {
					return stepOutcome{}, invariantErr(models.KindUpgradePath,
						"upgrade path references unknown product %s", pred)
				}
				fetched = append(fetched, models.UpgradePath{FromProductID: pred, ToProductID: p.ID, Active: true})
			}
		}

		current, err := m.store.UpgradePaths(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindUpgradePath, err)
		}

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyUpgradePathDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindUpgradePath, err)
		}
		return outcomeOf(d), nil
	})
}

// SyncSubscriptions reconciles subscriptions against upstream. Every
// subscription's product must resolve to a locally stored product.
func (m *Manager) SyncSubscriptions(ctx context.Context) error {
	return m.execute(ctx, models.KindSubscription, func(ctx context.Context) (stepOutcome, error) {
		fetched, err := m.client.Subscriptions(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindSubscription, err)
		}
		activate(fetched, func(s *models.Subscription) *bool { return &s.Active })

		products, err := m.store.Products(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindSubscription, err)
		}
		productIDs := make(map[string]struct{}, len(products))
		for _, p := range products {
			productIDs[p.ID] = struct{}{}
		}
		for _, s := range fetched {
			if _, ok := productIDs[s.ProductID]; !ok {
				return stepOutcome{}, invariantErr(models.KindSubscription,
					"subscription %s references unknown product %s", s.ID, s.ProductID)
			}
		}

		current, err := m.store.Subscriptions(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindSubscription, err)
		}

		d := Diff(fetched, current)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplySubscriptionDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindSubscription, err)
		}
		return outcomeOf(d), nil
	})
}

// Refresh runs all sync steps in dependency order. The first failing
// step aborts the remainder, since later steps assume the failed step's
// invariants; steps already completed stay committed and the whole
// refresh is safe to re-run.
func (m *Manager) Refresh(ctx context.Context) error {
	steps := []struct {
		kind models.EntityKind
		run  func(context.Context) error
	}{
		{models.KindChannelFamily, m.SyncChannelFamilies},
		{models.KindChannel, m.SyncChannels},
		{models.KindProduct, m.SyncProducts},
		{models.KindProductChannel, m.SyncProductChannels},
		{models.KindUpgradePath, m.SyncUpgradePaths},
		{models.KindSubscription, m.SyncSubscriptions},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("refresh aborted at %s: %w", step.kind, err)
		}
	}

	m.mu.Lock()
	m.lastRefresh = time.Now()
	m.mu.Unlock()

	logging.Ctx(ctx).Info().Msg("Full catalog refresh completed")
	return nil
}

// AddChannel reconciles exactly one channel by label. It fails with a
// NotFound error when the label is unknown upstream, and with an
// invariant error when the channel exists but its repositories are not
// accessible with the configured credentials.
func (m *Manager) AddChannel(ctx context.Context, label string) error {
	if label == "" {
		return invariantErr(models.KindChannel, "channel label must not be empty")
	}

	return m.execute(ctx, models.KindChannel, func(ctx context.Context) (stepOutcome, error) {
		channels, err := m.client.Channels(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindChannel, err)
		}
		repos, err := m.client.Repositories(ctx)
		if err != nil {
			return stepOutcome{}, fetchErr(models.KindChannel, err)
		}

		var match *models.Channel
		for i := range channels {
			if channels[i].Label == label {
				match = &channels[i]
				break
			}
		}
		if match == nil {
			return stepOutcome{}, notFoundErr(models.KindChannel, "channel %s does not exist upstream", label)
		}
		if !channelAvailable(*match, repos) {
			return stepOutcome{}, invariantErr(models.KindChannel,
				"channel %s exists upstream but its repositories are not accessible", label)
		}

		current, err := m.store.Channels(ctx)
		if err != nil {
			return stepOutcome{}, storeErr(models.KindChannel, err)
		}
		if err := m.checkChannelInvariants(ctx, []models.Channel{*match}, current); err != nil {
			return stepOutcome{}, err
		}

		// Single-channel reconciliation: diff only against the matching
		// local row, so absent upstream siblings are never deactivated.
		var currentOne []models.Channel
		for _, c := range current {
			if c.Label == label {
				currentOne = append(currentOne, c)
			}
		}

		fetched := *match
		fetched.Active = true
		d := Diff([]models.Channel{fetched}, currentOne)
		if d.Empty() {
			return stepOutcome{}, nil
		}
		if err := m.store.ApplyChannelDelta(ctx, d.Added, d.Updated, d.Removed); err != nil {
			return stepOutcome{}, storeErr(models.KindChannel, err)
		}
		return outcomeOf(d), nil
	})
}

// fetchAvailableChannels retrieves the upstream channel list filtered to
// channels whose repositories are all accessible.
func (m *Manager) fetchAvailableChannels(ctx context.Context) ([]models.Channel, error) {
	channels, err := m.client.Channels(ctx)
	if err != nil {
		return nil, fetchErr(models.KindChannel, err)
	}
	repos, err := m.client.Repositories(ctx)
	if err != nil {
		return nil, fetchErr(models.KindChannel, err)
	}

	available := make([]models.Channel, 0, len(channels))
	for _, c := range channels {
		if channelAvailable(c, repos) {
			c.Active = true
			available = append(available, c)
		}
	}
	return available, nil
}

// channelAvailable reports whether every repository the channel needs is
// in the accessible repository set. Channels without repositories are
// container channels and always available.
func channelAvailable(c models.Channel, repos []models.Repository) bool {
	accessible := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		accessible[r.Name] = struct{}{}
	}
	for _, name := range c.Repositories {
		if _, ok := accessible[name]; !ok {
			return false
		}
	}
	return true
}

// checkChannelInvariants verifies that after applying the fetched set,
// parent references resolve to a channel and family references resolve
// to a locally stored channel family. Used by the single-channel add,
// where the caller asked for this exact channel and a dangling
// reference must be reported, not skipped.
func (m *Manager) checkChannelInvariants(ctx context.Context, fetched, current []models.Channel) error {
	if err := m.checkFamilyRefs(ctx, fetched); err != nil {
		return err
	}

	// A parent resolves if it is in the fetched set or already stored.
	known := make(map[string]struct{}, len(fetched)+len(current))
	for _, c := range fetched {
		known[c.Label] = struct{}{}
	}
	for _, c := range current {
		known[c.Label] = struct{}{}
	}

	for _, c := range fetched {
		if c.ParentLabel != "" {
			if _, ok := known[c.ParentLabel]; !ok {
				return invariantErr(models.KindChannel,
					"channel %s references unknown parent %s", c.Label, c.ParentLabel)
			}
		}
	}
	return nil
}

// checkFamilyRefs verifies every fetched channel's family resolves to a
// locally stored channel family.
func (m *Manager) checkFamilyRefs(ctx context.Context, fetched []models.Channel) error {
	families, err := m.store.ChannelFamilies(ctx)
	if err != nil {
		return storeErr(models.KindChannel, err)
	}
	familyLabels := make(map[string]struct{}, len(families))
	for _, f := range families {
		familyLabels[f.Label] = struct{}{}
	}

	for _, c := range fetched {
		if c.FamilyLabel != "" {
			if _, ok := familyLabels[c.FamilyLabel]; !ok {
				return invariantErr(models.KindChannel,
					"channel %s references unknown channel family %s; run the channel family sync first", c.Label, c.FamilyLabel)
			}
		}
	}
	return nil
}

// dropOrphanChannels filters out fetched channels whose parent is
// neither in the surviving fetched set nor already stored. One vendor
// record with an unresolvable parent must not abort the whole channel
// step. Dropping a parent orphans its own children, so filtering
// repeats until the set is stable.
func dropOrphanChannels(ctx context.Context, fetched, current []models.Channel) []models.Channel {
	stored := make(map[string]struct{}, len(current))
	for _, c := range current {
		stored[c.Label] = struct{}{}
	}

	kept := fetched
	for {
		labels := make(map[string]struct{}, len(kept))
		for _, c := range kept {
			labels[c.Label] = struct{}{}
		}

		next := make([]models.Channel, 0, len(kept))
		for _, c := range kept {
			if c.ParentLabel != "" {
				_, inFetched := labels[c.ParentLabel]
				_, inStore := stored[c.ParentLabel]
				if !inFetched && !inStore {
					logging.Ctx(ctx).Warn().
						Str("channel", c.Label).
						Str("parent", c.ParentLabel).
						Msg("Skipping channel with unresolvable parent")
					continue
				}
			}
			next = append(next, c)
		}
		if len(next) == len(kept) {
			return kept
		}
		kept = next
	}
}

// Status returns the last recorded outcome per step in refresh order.
func (m *Manager) Status() models.SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := models.SyncStatus{LastRefresh: m.lastRefresh}
	for _, kind := range refreshOrder {
		if result, ok := m.stepResults[kind]; ok {
			status.Steps = append(status.Steps, result)
		}
	}
	return status
}

// LastRefreshTime returns the timestamp of the last successful full
// refresh.
func (m *Manager) LastRefreshTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefresh
}

// activate marks every fetched record active; upstream snapshots carry
// no activity flag of their own.
func activate[T any](items []T, flag func(*T) *bool) {
	for i := range items {
		*flag(&items[i]) = true
	}
}

func outcomeOf[T any](d Delta[T]) stepOutcome {
	return stepOutcome{added: len(d.Added), updated: len(d.Updated), removed: len(d.Removed)}
}
