// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/models"
)

// AuditConsumer subscribes to all bus topics and writes one structured
// audit log line per event. It implements suture.Service and runs under
// the supervision tree.
type AuditConsumer struct {
	bus *Bus
}

// NewAuditConsumer creates the audit consumer over the given bus.
func NewAuditConsumer(bus *Bus) *AuditConsumer {
	return &AuditConsumer{bus: bus}
}

// Serve consumes events until ctx is canceled or the bus closes.
func (a *AuditConsumer) Serve(ctx context.Context) error {
	syncMsgs, err := a.bus.Subscribe(ctx, TopicSyncCompleted)
	if err != nil {
		return err
	}
	migrationMsgs, err := a.bus.Subscribe(ctx, TopicMigrationCompleted)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-syncMsgs:
			if !ok {
				return nil
			}
			a.logSyncCompleted(msg)
		case msg, ok := <-migrationMsgs:
			if !ok {
				return nil
			}
			a.logMigrationCompleted(msg)
		}
	}
}

func (a *AuditConsumer) logSyncCompleted(msg *message.Message) {
	defer msg.Ack()

	var result models.SyncStepResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Malformed sync event payload")
		return
	}
	logging.Info().
		Str("event", TopicSyncCompleted).
		Str("step", string(result.Kind)).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Int("deactivated", result.Deactivated).
		Int64("duration_ms", result.DurationMS).
		Msg("Audit: sync step completed")
}

func (a *AuditConsumer) logMigrationCompleted(msg *message.Message) {
	defer msg.Ack()

	var evt MigrationCompleted
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Malformed migration event payload")
		return
	}
	logging.Info().
		Str("event", TopicMigrationCompleted).
		Str("backend", evt.Backend).
		Time("completed_at", evt.CompletedAt).
		Msg("Audit: backend migration completed")
}
