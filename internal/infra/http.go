package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPError wraps a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// HTTPClient performs JSON requests with a per-attempt timeout, bounded
// retries and an optional courtesy limiter shared by all calls.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
	retry   RetryPolicy
	limiter *RateLimiter
	logger  *slog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) HTTPOption {
	return func(c *HTTPClient) { c.retry = p }
}

// WithRateLimiter spaces requests by the limiter's interval.
func WithRateLimiter(rl *RateLimiter) HTTPOption {
	return func(c *HTTPClient) { c.limiter = rl }
}

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.client = hc }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient creates a client with a 10s timeout and the default retry policy.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		client:  &http.Client{},
		timeout: 10 * time.Second,
		retry:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = OrDefault(c.logger)
	return c
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, url, headers, nil, out)
}

// PostJSON encodes body as JSON, posts it to url and decodes the response
// into out. A nil out discards the response body.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, headers, payload, out)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, headers map[string]string, payload []byte, out any) error {
	attempt := 0
	return c.retry.Do(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			c.logger.Debug("retrying request", "method", method, "url", url, "attempt", attempt)
		}
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		body, err := c.send(reqCtx, method, url, headers, payload)
		if err != nil {
			return err
		}
		defer body.Close()

		if out == nil {
			_, _ = io.Copy(io.Discard, body)
			return nil
		}
		if err := json.NewDecoder(body).Decode(out); err != nil {
			return Permanent(fmt.Errorf("decode %s response: %w", url, err))
		}
		return nil
	})
}

// send performs a single request, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func (c *HTTPClient) send(ctx context.Context, method, url string, headers map[string]string, payload []byte) (io.ReadCloser, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s %s: %w", method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	return resp.Body, nil
}
