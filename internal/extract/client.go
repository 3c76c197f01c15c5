// Package extract implements the resilient extraction stage: a single
// upstream HTTP client wrapped by bounded retries, degrading through an
// ordered fallback chain so the pipeline always gets a record.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// Classification buckets for an upstream response.
type Classification int

const (
	ClassSuccess Classification = iota
	ClassTransient
	ClassFatal
)

// Classify maps an HTTP status to a retry decision. 429 and 503 signal
// transient load; anything else outside 2xx is an API-contract problem.
func Classify(statusCode int) Classification {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return ClassSuccess
	case statusCode == http.StatusTooManyRequests, statusCode == http.StatusServiceUnavailable:
		return ClassTransient
	default:
		return ClassFatal
	}
}

// Client performs a single GET against the APOD API and classifies the
// response.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new upstream API client with an explicit timeout.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch issues one GET and returns the parsed raw record. Network errors
// and 429/503 come back as *domain.TransientUpstreamError; any other
// non-2xx status as *domain.FatalUpstreamError.
func (c *Client) Fetch(ctx context.Context) (*domain.RawRecord, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransientUpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.TransientUpstreamError{Err: fmt.Errorf("read response: %w", err)}
	}

	switch Classify(resp.StatusCode) {
	case ClassTransient:
		return nil, &domain.TransientUpstreamError{StatusCode: resp.StatusCode}
	case ClassFatal:
		return nil, &domain.FatalUpstreamError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	var raw domain.RawRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		// A 2xx with an unparseable body is an API-contract problem, not load.
		return nil, &domain.FatalUpstreamError{
			StatusCode: resp.StatusCode,
			Body:       fmt.Sprintf("unparseable body: %v", err),
		}
	}

	return &raw, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
