// Package apify provides a client for running Apify actors, used for
// LinkedIn X-Ray searches through the Google Search Scraper actor.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Apify actor operations.
type Client interface {
	// StartActor starts an actor run with the given input and returns the run ID.
	StartActor(ctx context.Context, actorID string, input any) (string, error)
	// WaitForRun polls a run until it reaches a terminal state or the
	// timeout elapses.
	WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*RunData, error)
	// GetOrganicResults fetches the dataset of a finished Google Search
	// Scraper run and flattens the per-page organicResults arrays.
	GetOrganicResults(ctx context.Context, runID string) ([]OrganicResult, error)
}

// RunData is the status payload of an actor run.
type RunData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// runEnvelope wraps actor-run responses.
type runEnvelope struct {
	Data RunData `json:"data"`
}

// resultPage is one Google results page in the run dataset.
type resultPage struct {
	OrganicResults []OrganicResult `json:"organicResults"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	Description  string       `json:"description"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
}

// PersonalInfo carries structured profile fields when the scraper can
// extract them.
type PersonalInfo struct {
	Location    string `json:"location"`
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
}

// Terminal Apify run statuses.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// Option configures the Apify client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPollInterval overrides the run status poll interval (for testing).
func WithPollInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.pollInterval = d
	}
}

type httpClient struct {
	token        string
	baseURL      string
	pollInterval time.Duration
	http         *http.Client
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:        token,
		baseURL:      "https://api.apify.com/v2",
		pollInterval: 10 * time.Second,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) StartActor(ctx context.Context, actorID string, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", eris.Wrap(err, "apify: marshal actor input")
	}

	body, statusCode, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/acts/%s/runs", url.PathEscape(actorID)), payload)
	if err != nil {
		return "", eris.Wrap(err, "apify: start actor")
	}
	if statusCode != http.StatusCreated && statusCode != http.StatusOK {
		return "", eris.Errorf("apify: start actor status %d: %s", statusCode, string(body))
	}

	var env runEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", eris.Wrap(err, "apify: unmarshal run response")
	}
	if env.Data.ID == "" {
		return "", eris.Errorf("apify: actor run has no id: %s", string(body))
	}
	return env.Data.ID, nil
}

func (c *httpClient) WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*RunData, error) {
	deadline := time.Now().Add(timeout)

	for {
		body, statusCode, err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(runID), nil)
		if err != nil {
			return nil, eris.Wrap(err, "apify: poll run")
		}
		if statusCode != http.StatusOK {
			return nil, eris.Errorf("apify: poll run status %d: %s", statusCode, string(body))
		}

		var env runEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, eris.Wrap(err, "apify: unmarshal run status")
		}

		switch env.Data.Status {
		case StatusSucceeded:
			return &env.Data, nil
		case StatusFailed, StatusAborted, StatusTimedOut:
			return nil, eris.Errorf("apify: run %s ended with status %s", runID, env.Data.Status)
		}

		if time.Now().After(deadline) {
			return nil, eris.Errorf("apify: run %s did not finish within %s", runID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *httpClient) GetOrganicResults(ctx context.Context, runID string) ([]OrganicResult, error) {
	body, statusCode, err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(runID)+"/dataset/items", nil)
	if err != nil {
		return nil, eris.Wrap(err, "apify: fetch dataset")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("apify: fetch dataset status %d: %s", statusCode, string(body))
	}

	var pages []resultPage
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, eris.Wrap(err, "apify: unmarshal dataset")
	}

	var results []OrganicResult
	for _, page := range pages {
		results = append(results, page.OrganicResults...)
	}
	return results, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	reqURL := c.baseURL + path + "?token=" + url.QueryEscape(c.token)

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, eris.Wrap(err, "apify: create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "apify: read response body")
	}
	return body, resp.StatusCode, nil
}
