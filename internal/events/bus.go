// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package events provides the in-process event bus. Sync steps and the
// migration gate publish completion events; subscribers are advisory
// consumers (audit log, metrics) and never gate the operations that
// publish.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/metrics"
	"github.com/tomtom215/catalogus/internal/models"
)

// Topics published on the bus.
const (
	TopicSyncCompleted      = "catalog.sync.completed"
	TopicMigrationCompleted = "catalog.migration.completed"
)

// MigrationCompleted is the payload published after a successful backend
// migration.
type MigrationCompleted struct {
	Backend     string    `json:"backend"`
	CompletedAt time.Time `json:"completed_at"`
}

// Bus wraps a watermill gochannel pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			newLoggerAdapter(),
		),
	}
}

func (b *Bus) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// PublishSyncCompleted publishes a sync step completion event.
func (b *Bus) PublishSyncCompleted(_ context.Context, result models.SyncStepResult) error {
	return b.publish(TopicSyncCompleted, result)
}

// PublishMigrationCompleted publishes a migration completion event.
func (b *Bus) PublishMigrationCompleted(_ context.Context) error {
	return b.publish(TopicMigrationCompleted, MigrationCompleted{
		Backend:     "SCC",
		CompletedAt: time.Now(),
	})
}

// Subscribe returns the message stream for a topic. The channel closes
// when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down; pending subscribers' channels are closed.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
