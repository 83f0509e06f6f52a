// Package iris provides the client for the Iris Finance metrics API.
package iris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finboard/finboard/internal/domain"
)

// DefaultBaseURL is the production metrics endpoint.
const DefaultBaseURL = "https://api.irisfinance.co/metrics"

// Client for the Iris Finance metrics API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Iris Finance API client. An empty baseURL selects
// the production endpoint.
func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "iris").Logger(),
	}
}

// Request payload for the metrics endpoint. The API computes every metric
// server-side from the selected sales channels and window.
type metricsRequest struct {
	Filters filters `json:"filters"`
}

type filters struct {
	StartDate            string                  `json:"startDate"`
	EndDate              string                  `json:"endDate"`
	IsCashRefundSelected bool                    `json:"isCashRefundSelected"`
	SalesChannels        map[string]channelGroup `json:"salesChannels"`
}

type channelGroup struct {
	Channels map[string]channel `json:"channels"`
}

type channel struct {
	Stores map[string]store `json:"stores"`
}

type store struct {
	Subchannels []string `json:"subchannels"`
}

// defaultSalesChannels mirrors the channel selection the Iris dashboard sends.
func defaultSalesChannels() map[string]channelGroup {
	return map[string]channelGroup{
		"DTC": {
			Channels: map[string]channel{
				"Amazon Seller Partner": {
					Stores: map[string]store{
						"US": {Subchannels: []string{"amazon"}},
					},
				},
				"Shopify": {
					Stores: map[string]store{
						"yoprettyboy": {
							Subchannels: []string{
								"buy button", "point of sale", "faire", "facebook & instagram",
								"unknown", "iphone", "shop", "tiktok", "draft order",
								"subscription", "online store",
							},
						},
					},
				},
			},
		},
		"Wholesale": {
			Channels: map[string]channel{},
		},
	}
}

// Fetch retrieves the raw metrics document for a date window.
// Returns domain.ErrUpstreamAuthMissing when no token is configured, and
// wraps any transport or status failure in domain.ErrUpstreamFetch so
// callers can distinguish the two.
func (c *Client) Fetch(ctx context.Context, startDate, endDate string) ([]byte, error) {
	if c.token == "" {
		return nil, domain.ErrUpstreamAuthMissing
	}

	payload := metricsRequest{
		Filters: filters{
			StartDate:            startDate,
			EndDate:              endDate,
			IsCashRefundSelected: false,
			SalesChannels:        defaultSalesChannels(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	c.log.Info().
		Str("start_date", startDate).
		Str("end_date", endDate).
		Msg("Fetching metrics from Iris API")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("response", string(detail)).
			Msg("Iris API returned error status")
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrUpstreamFetch, err)
	}

	c.log.Info().Int("bytes", len(raw)).Msg("Successfully fetched metrics data")
	return raw, nil
}
