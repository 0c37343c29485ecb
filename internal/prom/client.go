package prom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Client is the backend query interface consumed by the evaluator.
// Implementations must surface failures as errors, never panic.
type Client interface {
	QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) (Result, error)
	QueryInstant(ctx context.Context, expr string) (Result, error)
}

// Config holds HTTP client configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxConcurrency int64
	RetryCount     int
	RetryDelay     time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig(prometheusURL string) Config {
	return Config{
		URL:            prometheusURL,
		Timeout:        10 * time.Second,
		MaxConcurrency: 10,
		RetryCount:     1,
		RetryDelay:     100 * time.Millisecond,
	}
}

// HTTPClient queries a Prometheus-compatible HTTP API.
type HTTPClient struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
}

// NewHTTPClient creates a new query client
func NewHTTPClient(config Config) *HTTPClient {
	return &HTTPClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		sem: semaphore.NewWeighted(config.MaxConcurrency),
	}
}

// QueryRange executes a range query over [start, end] with the given step.
func (c *HTTPClient) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) (Result, error) {
	params := url.Values{}
	params.Add("query", expr)
	params.Add("start", strconv.FormatInt(start.Unix(), 10))
	params.Add("end", strconv.FormatInt(end.Unix(), 10))
	params.Add("step", strconv.Itoa(int(step.Seconds())))

	return c.execute(ctx, "query_range", params)
}

// QueryInstant executes an instant query evaluated at the current time.
func (c *HTTPClient) QueryInstant(ctx context.Context, expr string) (Result, error) {
	params := url.Values{}
	params.Add("query", expr)

	return c.execute(ctx, "query", params)
}

// execute runs one API call with bounded concurrency and retry.
func (c *HTTPClient) execute(ctx context.Context, endpoint string, params url.Values) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return Result{}, fmt.Errorf("semaphore acquire: %w", err)
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(c.config.RetryDelay)
		}

		resp, err := c.doRequest(ctx, endpoint, params)
		if err == nil {
			return Result{Series: resp.Data.Result}, nil
		}

		lastErr = err
	}

	return Result{}, fmt.Errorf("query failed after %d attempts: %w", c.config.RetryCount+1, lastErr)
}

// doRequest performs a single query API request
func (c *HTTPClient) doRequest(ctx context.Context, endpoint string, params url.Values) (*queryResponse, error) {
	queryURL := fmt.Sprintf("%s/api/v1/%s", strings.TrimSuffix(c.config.URL, "/"), endpoint)
	fullURL := queryURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("prometheus error: %s", result.Error)
	}

	return &result, nil
}
