// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/catalogus/internal/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.CatalogConfig{
		BaseURL:  srv.URL,
		Username: "mirror-user",
		Password: "mirror-pass",
		Timeout:  5 * time.Second,
	})
}

func TestClientFetchesCollections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/channel_families", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "mirror-user" || pass != "mirror-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":"f1","label":"sles","name":"SLES","channels":["c1"]}]`))
	})
	mux.HandleFunc("/organizations/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"c1","name":"Channel 1","parent":"","family":"sles","arch":"x86_64","products":["p1"],"repositories":["r1"]}]`))
	})
	mux.HandleFunc("/organizations/repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"r1","url":"https://example.com/r1"}]`))
	})
	mux.HandleFunc("/organizations/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"p1","name":"SLES","version":"15","arch":"x86_64","channels":["c1"],"extensions":[],"online_predecessors":["p0"]}]`))
	})
	mux.HandleFunc("/organizations/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"s1","product_id":"p1","organization":"acme","starts_at":"2026-01-01T00:00:00Z","expires_at":"2027-01-01T00:00:00Z"}]`))
	})

	c := testClient(t, mux)
	ctx := context.Background()

	families, err := c.ChannelFamilies(ctx)
	if err != nil {
		t.Fatalf("ChannelFamilies() error = %v", err)
	}
	if len(families) != 1 || families[0].Label != "sles" {
		t.Errorf("families = %+v", families)
	}
	if families[0].Active {
		t.Error("wire records must never arrive active")
	}

	channels, err := c.Channels(ctx)
	if err != nil {
		t.Fatalf("Channels() error = %v", err)
	}
	if len(channels) != 1 || channels[0].FamilyLabel != "sles" {
		t.Errorf("channels = %+v", channels)
	}

	repos, err := c.Repositories(ctx)
	if err != nil {
		t.Fatalf("Repositories() error = %v", err)
	}
	if len(repos) != 1 || repos[0].Name != "r1" {
		t.Errorf("repos = %+v", repos)
	}

	products, err := c.Products(ctx)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 1 || len(products[0].PredecessorIDs) != 1 || products[0].PredecessorIDs[0] != "p0" {
		t.Errorf("products = %+v", products)
	}

	subs, err := c.Subscriptions(ctx)
	if err != nil {
		t.Fatalf("Subscriptions() error = %v", err)
	}
	if len(subs) != 1 || subs[0].ProductID != "p1" {
		t.Errorf("subscriptions = %+v", subs)
	}
}

func TestClientNon200Status(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusServiceUnavailable)
	}))

	_, err := c.Products(context.Background())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestClientMalformedBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	}))

	if _, err := c.Channels(context.Background()); err == nil {
		t.Fatal("expected decode error for malformed body")
	}
}

func TestClientBreakerOpensOnSustainedFailures(t *testing.T) {
	cfgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer cfgSrv.Close()

	broken := NewClient(&config.CatalogConfig{
		BaseURL:        cfgSrv.URL,
		Timeout:        time.Second,
		BreakerEnabled: true,
		BreakerTimeout: time.Minute,
	})

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, _ = broken.Products(ctx)
	}

	// Once open, calls fail fast without reaching the server.
	start := time.Now()
	_, err := broken.Products(ctx)
	if err == nil {
		t.Fatal("expected breaker to reject calls")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("open breaker should fail fast, took %s", elapsed)
	}
}

func TestClientContextCancellation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Products(ctx); err == nil {
		t.Fatal("expected error on canceled context")
	}
}
