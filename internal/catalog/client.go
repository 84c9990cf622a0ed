// Catalogus - Vendor Catalog Synchronization and Mirroring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package catalog implements the HTTP client for the upstream catalog
// service. It is a pure I/O boundary: every method fetches one snapshot
// collection and surfaces transport failures as errors, with a circuit
// breaker and rate limiter protecting the upstream.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/metrics"
	"github.com/tomtom215/catalogus/internal/models"
)

const breakerName = "catalog-upstream"

// Client talks to the upstream catalog service over HTTPS with the
// configured mirror credentials.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a catalog client from configuration.
//
// Breaker policy: open after 60% failures over at least 10 requests in a
// one-minute window, retry after the configured breaker timeout. Matches
// the failure profile of a rate-limited vendor API: transient spikes
// should not trip it, sustained outages should.
func NewClient(cfg *config.CatalogConfig) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	if cfg.BreakerEnabled {
		metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
		c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 10 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("Catalog circuit breaker state transition")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
				metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			},
		})
	}

	return c
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// get fetches one endpoint and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	fetch := func() ([]byte, error) {
		return c.fetch(ctx, endpoint)
	}

	var body []byte
	var err error
	if c.cb != nil {
		body, err = c.cb.Execute(fetch)
		if err != nil {
			return err
		}
	} else if body, err = fetch(); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	reqURL, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return nil, fmt.Errorf("build URL for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveCatalogRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.ObserveCatalogRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("request %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return body, nil
}

// ChannelFamilies fetches the channel family snapshot.
func (c *Client) ChannelFamilies(ctx context.Context) ([]models.ChannelFamily, error) {
	var dtos []channelFamilyDTO
	if err := c.get(ctx, "/organizations/channel_families", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.ChannelFamily, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Channels fetches the full channel snapshot, availability not yet
// applied.
func (c *Client) Channels(ctx context.Context) ([]models.Channel, error) {
	var dtos []channelDTO
	if err := c.get(ctx, "/organizations/channels", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Channel, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Repositories fetches the repositories accessible with the configured
// mirror credentials.
func (c *Client) Repositories(ctx context.Context) ([]models.Repository, error) {
	var dtos []repositoryDTO
	if err := c.get(ctx, "/organizations/repositories", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Repository, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, models.Repository(d))
	}
	return out, nil
}

// Products fetches the product snapshot.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var dtos []productDTO
	if err := c.get(ctx, "/organizations/products", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Subscriptions fetches the subscription snapshot.
func (c *Client) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	var dtos []subscriptionDTO
	if err := c.get(ctx, "/organizations/subscriptions", &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Subscription, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}
