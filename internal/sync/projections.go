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

// ListProducts returns the reconciled local product view joined with
// extension and availability metadata. Read-only: no reconciliation, no
// upstream calls.
//
// A product is available when it provides at least one channel and every
// channel it provides is mirrored and active locally.
func (m *Manager) ListProducts(ctx context.Context) ([]models.ListedProduct, error) {
	products, err := m.store.Products(ctx)
	if err != nil {
		return nil, storeErr(models.KindProduct, err)
	}
	channels, err := m.store.Channels(ctx)
	if err != nil {
		return nil, storeErr(models.KindProduct, err)
	}

	activeChannels := make(map[string]struct{}, len(channels))
	for _, c := range channels {
		if c.Active {
			activeChannels[c.Label] = struct{}{}
		}
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.ListedProduct, 0, len(products))
	for _, p := range products {
		if !p.Active {
			continue
		}

		listed := models.ListedProduct{
			Product:   p,
			Available: productAvailable(p, activeChannels),
		}
		for _, extID := range p.ExtensionIDs {
			if ext, ok := byID[extID]; ok && ext.Active {
				listed.Extensions = append(listed.Extensions, ext)
			}
		}
		out = append(out, listed)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out, nil
}

// ListChannels returns the reconciled local channel view. A channel is
// listed as available when it is active and its parent, if any, is an
// active local channel.
func (m *Manager) ListChannels(ctx context.Context) ([]models.ListedChannel, error) {
	channels, err := m.store.Channels(ctx)
	if err != nil {
		return nil, storeErr(models.KindChannel, err)
	}

	active := make(map[string]struct{}, len(channels))
	for _, c := range channels {
		if c.Active {
			active[c.Label] = struct{}{}
		}
	}

	out := make([]models.ListedChannel, 0, len(channels))
	for _, c := range channels {
		if !c.Active {
			continue
		}
		available := true
		if c.ParentLabel != "" {
			_, available = active[c.ParentLabel]
		}
		out = append(out, models.ListedChannel{Channel: c, Available: available})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Channel.Label < out[j].Channel.Label })
	return out, nil
}

func productAvailable(p models.Product, activeChannels map[string]struct{}) bool {
	if len(p.ChannelLabels) == 0 {
		return false
	}
	for _, label := range p.ChannelLabels {
		if _, ok := activeChannels[label]; !ok {
			return false
		}
	}
	return true
}
