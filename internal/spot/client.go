// Package spot provides the client for the upstream day-ahead electricity
// price API.
package spot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"homedash/internal/models"
)

// Fetcher retrieves the full price series for the dashboard. The query range
// is derived from now at call time; the result is semantically "the"
// electricity price series regardless of the range.
type Fetcher interface {
	FetchPrices(ctx context.Context, now time.Time) (models.PriceSeries, error)
}

// ClientConfig holds HTTP client tuning parameters.
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client fetches prices from the upstream HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	zone       *time.Location
	maxRetries int
	retryDelay time.Duration
}

// wirePoint mirrors one element of the upstream response body. Pointer
// fields distinguish a missing key from a zero value so malformed elements
// are rejected rather than silently defaulted.
type wirePoint struct {
	DateTime *string  `json:"DateTime"`
	Price    *float64 `json:"Price"`
}

// NewClient creates a new price API client. zone is the display zone; it
// anchors the query range and names the timeFormat parameter.
func NewClient(baseURL string, timeout time.Duration, zone *time.Location, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		zone:       zone,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelayBase,
	}
}

// queryRange computes the fetch window: 00:00 of yesterday through 23:00 of
// tomorrow, anchored in the display zone and normalized to UTC.
func (c *Client) queryRange(now time.Time) (time.Time, time.Time) {
	local := now.In(c.zone)
	start := time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, c.zone)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 23, 0, 0, 0, c.zone)
	return start.UTC(), end.UTC()
}

// FetchPrices retrieves, validates, and sorts the price series.
func (c *Client) FetchPrices(ctx context.Context, now time.Time) (models.PriceSeries, error) {
	u, err := url.Parse(c.baseURL + "/api/electricity/prices")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	start, end := c.queryRange(now)
	q := u.Query()
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	q.Set("timeFormat", c.zone.String())
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var wire []wirePoint
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode prices: %w", err)
	}

	series, err := decodeSeries(wire)
	if err != nil {
		return nil, err
	}
	series.Sort()
	return series, nil
}

// decodeSeries converts wire elements to domain points. Any non-conforming
// element rejects the whole response; the caller keeps its previous series.
func decodeSeries(wire []wirePoint) (models.PriceSeries, error) {
	series := make(models.PriceSeries, 0, len(wire))
	for i, w := range wire {
		if w.DateTime == nil || w.Price == nil {
			return nil, fmt.Errorf("price element %d missing DateTime or Price", i)
		}
		ts, err := time.Parse(time.RFC3339, *w.DateTime)
		if err != nil {
			return nil, fmt.Errorf("price element %d has invalid timestamp %q: %w", i, *w.DateTime, err)
		}
		series = append(series, models.PricePoint{DateTime: ts, Price: *w.Price})
	}
	return series, nil
}

// doRequest performs an HTTP request, retrying transport errors and server
// errors with a linearly growing delay.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		// No backoff after the last attempt; the caller gets the error now.
		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay * time.Duration(i+1)):
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
