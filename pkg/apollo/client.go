// Package apollo provides a client for the Apollo.io people search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Client defines the Apollo people search operations.
type Client interface {
	// SearchPeople runs one page of a mixed people search.
	SearchPeople(ctx context.Context, filters model.Filters, page, perPage int) (*SearchResponse, error)
}

// SearchResponse is the parsed Apollo search response.
type SearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the result window of a search.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_entries"`
}

// Person is one contact in an Apollo search result.
type Person struct {
	Email        string        `json:"email"`
	EmailStatus  string        `json:"email_status"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Seniority    string        `json:"seniority"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Country      string        `json:"country"`
	LinkedInURL  string        `json:"linkedin_url"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	Organization *Organization `json:"organization"`
}

// PhoneNumber is one phone entry on a person.
type PhoneNumber struct {
	SanitizedNumber string `json:"sanitized_number"`
}

// Organization is the employer attached to a person.
type Organization struct {
	Name                  string `json:"name"`
	PrimaryDomain         string `json:"primary_domain"`
	WebsiteURL            string `json:"website_url"`
	Industry              string `json:"industry"`
	EstimatedNumEmployees int    `json:"estimated_num_employees"`
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the request pacing (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.apollo.io/v1",
		// Apollo tolerates roughly two search calls per second before
		// throttling; pace pages rather than burst them.
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchRequest is the wire payload for mixed_people/search.
type searchRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	model.Filters
}

const maxPerPage = 100

func (c *httpClient) SearchPeople(ctx context.Context, filters model.Filters, page, perPage int) (*SearchResponse, error) {
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	payload, err := json.Marshal(searchRequest{Page: page, PerPage: perPage, Filters: filters})
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal search request")
	}

	body, statusCode, err := c.retryDo(ctx, c.baseURL+"/mixed_people/search", payload)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: search request failed")
	}

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return nil, eris.Errorf("apollo: authentication failed (status %d), check APOLLO_API_KEY", statusCode)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("apollo: unexpected status %d: %s", statusCode, truncate(body, 200))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "apollo: unmarshal search response")
	}

	return &result, nil
}

// retryDo executes a POST with exponential backoff on transient failures.
// Rate-limit responses (429) back off substantially longer than server
// errors, mirroring Apollo's published throttling guidance.
func (c *httpClient) retryDo(ctx context.Context, url string, payload []byte) ([]byte, int, error) {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, 0, eris.Wrap(err, "apollo: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if sleepErr := sleepCtx(ctx, backoffFor(attempt, 0)); sleepErr != nil {
				return nil, 0, sleepErr
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "apollo: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts-1 {
			lastErr = eris.Errorf("apollo: status %d: %s", resp.StatusCode, truncate(body, 200))
			if sleepErr := sleepCtx(ctx, backoffFor(attempt, resp.StatusCode)); sleepErr != nil {
				return nil, 0, sleepErr
			}
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func backoffFor(attempt, statusCode int) time.Duration {
	d := time.Duration(1<<attempt) * time.Second
	if statusCode == http.StatusTooManyRequests {
		d *= 5
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
