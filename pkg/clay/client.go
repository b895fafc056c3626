// Package clay provides a client for pushing leads into a Clay webhook
// table for enrichment.
package clay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Clay enrichment operations.
type Client interface {
	// PushLead sends one lead payload to the configured webhook table.
	// Clay enriches asynchronously; acceptance is the success signal.
	PushLead(ctx context.Context, payload any) error
}

// Option configures the Clay client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	webhookURL string
	apiKey     string
	http       *http.Client
}

// NewClient creates a new Clay webhook client.
func NewClient(webhookURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) PushLead(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "clay: marshal lead payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "clay: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-clay-webhook-auth", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "clay: push lead")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("clay: webhook status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
