// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/models"
)

// marshalList encodes a string slice as JSON text for storage. A nil
// slice encodes as the empty list.
func marshalList(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	data, err := json.Marshal(s)
	if err != nil {
		// strings cannot fail to marshal; keep the row writable regardless
		return "[]"
	}
	return string(data)
}

func unmarshalList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("corrupt list column %q: %w", raw, err)
	}
	return s, nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (db *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ChannelFamilies returns every stored channel family, active or not.
// Reconciliation needs the full set to compute deltas; projections filter
// on Active themselves.
func (db *DB) ChannelFamilies(ctx context.Context) ([]models.ChannelFamily, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT label, id, name, channel_labels, active FROM channel_families`)
	if err != nil {
		return nil, fmt.Errorf("query channel_families: %w", err)
	}
	defer rows.Close()

	var out []models.ChannelFamily
	for rows.Next() {
		var f models.ChannelFamily
		var labels string
		if err := rows.Scan(&f.Label, &f.ID, &f.Name, &labels, &f.Active); err != nil {
			return nil, fmt.Errorf("scan channel_family: %w", err)
		}
		if f.ChannelLabels, err = unmarshalList(labels); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Channels returns every stored channel.
func (db *DB) Channels(ctx context.Context) ([]models.Channel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT label, name, parent_label, family_label, arch, product_ids, repositories, active FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var out []models.Channel
	for rows.Next() {
		var c models.Channel
		var productIDs, repos string
		if err := rows.Scan(&c.Label, &c.Name, &c.ParentLabel, &c.FamilyLabel, &c.Arch, &productIDs, &repos, &c.Active); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		if c.ProductIDs, err = unmarshalList(productIDs); err != nil {
			return nil, err
		}
		if c.Repositories, err = unmarshalList(repos); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Products returns every stored product.
func (db *DB) Products(ctx context.Context) ([]models.Product, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, version, arch, channel_labels, extension_ids, predecessor_ids, active FROM products`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		var channels, extensions, predecessors string
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &p.Arch, &channels, &extensions, &predecessors, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.ChannelLabels, err = unmarshalList(channels); err != nil {
			return nil, err
		}
		if p.ExtensionIDs, err = unmarshalList(extensions); err != nil {
			return nil, err
		}
		if p.PredecessorIDs, err = unmarshalList(predecessors); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProductChannels returns every stored product-channel link.
func (db *DB) ProductChannels(ctx context.Context) ([]models.ProductChannel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT product_id, channel_label, active FROM product_channels`)
	if err != nil {
		return nil, fmt.Errorf("query product_channels: %w", err)
	}
	defer rows.Close()

	var out []models.ProductChannel
	for rows.Next() {
		var pc models.ProductChannel
		if err := rows.Scan(&pc.ProductID, &pc.ChannelLabel, &pc.Active); err != nil {
			return nil, fmt.Errorf("scan product_channel: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// UpgradePaths returns every stored upgrade path.
func (db *DB) UpgradePaths(ctx context.Context) ([]models.UpgradePath, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT from_product_id, to_product_id, active FROM upgrade_paths`)
	if err != nil {
		return nil, fmt.Errorf("query upgrade_paths: %w", err)
	}
	defer rows.Close()

	var out []models.UpgradePath
	for rows.Next() {
		var u models.UpgradePath
		if err := rows.Scan(&u.FromProductID, &u.ToProductID, &u.Active); err != nil {
			return nil, fmt.Errorf("scan upgrade_path: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Subscriptions returns every stored subscription.
func (db *DB) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, product_id, organization, starts_at, expires_at, active FROM subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []models.Subscription
	for rows.Next() {
		var s models.Subscription
		var starts, expires sql.NullTime
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Organization, &starts, &expires, &s.Active); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if starts.Valid {
			s.StartsAt = starts.Time
		}
		if expires.Valid {
			s.ExpiresAt = expires.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ApplyChannelFamilyDelta writes one channel-family delta atomically.
// Added and updated rows are upserted; removed rows are deactivated, not
// deleted, so channel references stay resolvable.
func (db *DB) ApplyChannelFamilyDelta(ctx context.Context, added, updated, removed []models.ChannelFamily) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, f := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO channel_families (label, id, name, channel_labels, active) VALUES (?, ?, ?, ?, ?)`,
				f.Label, f.ID, f.Name, marshalList(f.ChannelLabels), f.Active); err != nil {
				return fmt.Errorf("upsert channel_family %s: %w", f.Label, err)
			}
		}
		for _, f := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE channel_families SET active = false WHERE label = ?`, f.Label); err != nil {
				return fmt.Errorf("deactivate channel_family %s: %w", f.Label, err)
			}
		}
		return nil
	})
}

// ApplyChannelDelta writes one channel delta atomically.
func (db *DB) ApplyChannelDelta(ctx context.Context, added, updated, removed []models.Channel) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO channels (label, name, parent_label, family_label, arch, product_ids, repositories, active)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				c.Label, c.Name, c.ParentLabel, c.FamilyLabel, c.Arch,
				marshalList(c.ProductIDs), marshalList(c.Repositories), c.Active); err != nil {
				return fmt.Errorf("upsert channel %s: %w", c.Label, err)
			}
		}
		for _, c := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE channels SET active = false WHERE label = ?`, c.Label); err != nil {
				return fmt.Errorf("deactivate channel %s: %w", c.Label, err)
			}
		}
		return nil
	})
}

// ApplyProductDelta writes one product delta atomically.
func (db *DB) ApplyProductDelta(ctx context.Context, added, updated, removed []models.Product) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO products (id, name, version, arch, channel_labels, extension_ids, predecessor_ids, active)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Version, p.Arch,
				marshalList(p.ChannelLabels), marshalList(p.ExtensionIDs), marshalList(p.PredecessorIDs), p.Active); err != nil {
				return fmt.Errorf("upsert product %s: %w", p.ID, err)
			}
		}
		for _, p := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET active = false WHERE id = ?`, p.ID); err != nil {
				return fmt.Errorf("deactivate product %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// ApplyProductChannelDelta writes one product-channel link delta
// atomically.
func (db *DB) ApplyProductChannelDelta(ctx context.Context, added, updated, removed []models.ProductChannel) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, pc := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO product_channels (product_id, channel_label, active) VALUES (?, ?, ?)`,
				pc.ProductID, pc.ChannelLabel, pc.Active); err != nil {
				return fmt.Errorf("upsert product_channel %s: %w", pc.Key(), err)
			}
		}
		for _, pc := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE product_channels SET active = false WHERE product_id = ? AND channel_label = ?`,
				pc.ProductID, pc.ChannelLabel); err != nil {
				return fmt.Errorf("deactivate product_channel %s: %w", pc.Key(), err)
			}
		}
		return nil
	})
}

// ApplyUpgradePathDelta writes one upgrade-path delta atomically.
func (db *DB) ApplyUpgradePathDelta(ctx context.Context, added, updated, removed []models.UpgradePath) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO upgrade_paths (from_product_id, to_product_id, active) VALUES (?, ?, ?)`,
				u.FromProductID, u.ToProductID, u.Active); err != nil {
				return fmt.Errorf("upsert upgrade_path %s: %w", u.Key(), err)
			}
		}
		for _, u := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE upgrade_paths SET active = false WHERE from_product_id = ? AND to_product_id = ?`,
				u.FromProductID, u.ToProductID); err != nil {
				return fmt.Errorf("deactivate upgrade_path %s: %w", u.Key(), err)
			}
		}
		return nil
	})
}

// ApplySubscriptionDelta writes one subscription delta atomically.
func (db *DB) ApplySubscriptionDelta(ctx context.Context, added, updated, removed []models.Subscription) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range append(added, updated...) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO subscriptions (id, product_id, organization, starts_at, expires_at, active)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				s.ID, s.ProductID, s.Organization, s.StartsAt, s.ExpiresAt, s.Active); err != nil {
				return fmt.Errorf("upsert subscription %s: %w", s.ID, err)
			}
		}
		for _, s := range removed {
			if _, err := tx.ExecContext(ctx,
				`UPDATE subscriptions SET active = false WHERE id = ?`, s.ID); err != nil {
				return fmt.Errorf("deactivate subscription %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

// ClearProducts removes all product-derived state: products, their
// channel links, upgrade paths and subscriptions. Used by the backend
// migration, which must reset product state because the new backend's
// product identifiers are incompatible with the old one's.
func (db *DB) ClearProducts(ctx context.Context) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"subscriptions", "upgrade_paths", "product_channels", "products"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
