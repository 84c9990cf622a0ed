// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package events

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/models"
)

func TestBusSyncCompletedRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx, TopicSyncCompleted)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := models.SyncStepResult{
		Kind:        models.KindChannel,
		Added:       3,
		Updated:     1,
		Deactivated: 2,
		CompletedAt: time.Now(),
	}
	if err := bus.PublishSyncCompleted(ctx, want); err != nil {
		t.Fatalf("PublishSyncCompleted() error = %v", err)
	}

	select {
	case msg := <-msgs:
		var got models.SyncStepResult
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		msg.Ack()
		if got.Kind != want.Kind || got.Added != want.Added || got.Deactivated != want.Deactivated {
			t.Errorf("payload = %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for sync event")
	}
}

func TestBusMigrationCompleted(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx, TopicMigrationCompleted)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := bus.PublishMigrationCompleted(ctx); err != nil {
		t.Fatalf("PublishMigrationCompleted() error = %v", err)
	}

	select {
	case msg := <-msgs:
		var got MigrationCompleted
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		msg.Ack()
		if got.Backend != "SCC" {
			t.Errorf("backend = %s, want SCC", got.Backend)
		}
		if got.CompletedAt.IsZero() {
			t.Error("completed_at should be set")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for migration event")
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus()
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.PublishMigrationCompleted(context.Background()); err == nil {
		t.Error("publishing on a closed bus should fail")
	}
}
