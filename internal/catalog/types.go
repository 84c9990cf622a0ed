// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package catalog

import (
	"time"

	"github.com/tomtom215/catalogus/internal/models"
)

// Wire types for the upstream catalog JSON API. Kept separate from the
// domain models so upstream schema drift stays contained in this
// package. Active is always false on the wire; the sync engine decides
// activity.

type channelFamilyDTO struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Name     string   `json:"name"`
	Channels []string `json:"channels"`
}

func (d channelFamilyDTO) toModel() models.ChannelFamily {
	return models.ChannelFamily{
		ID:            d.ID,
		Label:         d.Label,
		Name:          d.Name,
		ChannelLabels: d.Channels,
	}
}

type channelDTO struct {
	Label        string   `json:"label"`
	Name         string   `json:"name"`
	Parent       string   `json:"parent,omitempty"`
	Family       string   `json:"family,omitempty"`
	Arch         string   `json:"arch,omitempty"`
	Products     []string `json:"products"`
	Repositories []string `json:"repositories"`
}

func (d channelDTO) toModel() models.Channel {
	return models.Channel{
		Label:        d.Label,
		Name:         d.Name,
		ParentLabel:  d.Parent,
		FamilyLabel:  d.Family,
		Arch:         d.Arch,
		ProductIDs:   d.Products,
		Repositories: d.Repositories,
	}
}

type repositoryDTO struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type productDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Arch         string   `json:"arch"`
	Channels     []string `json:"channels"`
	Extensions   []string `json:"extensions"`
	Predecessors []string `json:"online_predecessors"`
}

func (d productDTO) toModel() models.Product {
	return models.Product{
		ID:             d.ID,
		Name:           d.Name,
		Version:        d.Version,
		Arch:           d.Arch,
		ChannelLabels:  d.Channels,
		ExtensionIDs:   d.Extensions,
		PredecessorIDs: d.Predecessors,
	}
}

type subscriptionDTO struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Organization string    `json:"organization"`
	StartsAt     time.Time `json:"starts_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (d subscriptionDTO) toModel() models.Subscription {
	return models.Subscription{
		ID:           d.ID,
		ProductID:    d.ProductID,
		Organization: d.Organization,
		StartsAt:     d.StartsAt,
		ExpiresAt:    d.ExpiresAt,
	}
}
