// Package httpx is the shared HTTP layer for outbound provider calls.
// Every LLM and search request goes through a Client so the retry policy,
// rate limiting and per-provider concurrency caps live in one place.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "ClaimStack-PricingService/1.0"

// ClientConfig bounds a provider client.
type ClientConfig struct {
	// RequestsPerSecond feeds the token bucket. Zero disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Burst is the token bucket burst. Defaults to 1 when throttling is on.
	Burst int `mapstructure:"burst"`

	// MaxInFlight caps concurrent outbound calls to this provider.
	// Zero means unlimited.
	MaxInFlight int64 `mapstructure:"max_in_flight"`

	Retry RetryPolicy `mapstructure:"retry"`

	UserAgent string `mapstructure:"user_agent"`
}

// DefaultClientConfig returns the provider client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestsPerSecond: 5,
		Burst:             2,
		MaxInFlight:       10,
		Retry:             DefaultRetryPolicy(),
		UserAgent:         defaultUserAgent,
	}
}

// Client wraps http.Client with rate limiting, a concurrency cap and the
// retry policy. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	inflight   *semaphore.Weighted
	cfg        ClientConfig
}

// NewClient builds a client from config. The inner http.Client carries no
// timeout of its own; per-attempt deadlines come from the retry policy.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	c := &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.MaxInFlight > 0 {
		c.inflight = semaphore.NewWeighted(cfg.MaxInFlight)
	}
	return c
}

// Config returns the client's configuration.
func (c *Client) Config() ClientConfig { return c.cfg }

// Do executes one request body factory with retries. The factory is called
// per attempt so bodies are never reused across retries. On exhaustion the
// returned error is a *RetryError.
func (c *Client) Do(ctx context.Context, op, method, url string, makeBody func() io.Reader, header http.Header) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt < c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.Retry.Backoff(attempt - 1)):
			}
		}

		resp, status, err := c.attempt(ctx, method, url, makeBody, header, attempt)
		if err == nil && status >= 200 && status < 300 {
			return resp, nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastStatus, lastErr = status, err

		if err != nil && !RetryableError(err) {
			return nil, err
		}
		if err == nil && !RetryableStatus(status) {
			return nil, &StatusError{Op: op, Status: status}
		}
	}

	return nil, &RetryError{
		Op:         op,
		Attempts:   c.cfg.Retry.MaxAttempts,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

func (c *Client) attempt(ctx context.Context, method, url string, makeBody func() io.Reader, header http.Header, attempt int) (*http.Response, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}
	if c.inflight != nil {
		if err := c.inflight.Acquire(ctx, 1); err != nil {
			return nil, 0, err
		}
		defer c.inflight.Release(1)
	}

	// The attempt context must outlive this function on success: the caller
	// still has to read the body. Ownership of cancel transfers to the
	// deadlineFreeBody wrapper, so every early return cancels explicitly.
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Retry.TimeoutFor(attempt))

	var body io.Reader
	if makeBody != nil {
		body = makeBody()
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		cancel()
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, 0, err
	}

	// Detach the body from the attempt deadline so callers can read it.
	// Non-2xx responses are closed by Do, which also runs cancel.
	resp.Body = &deadlineFreeBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, resp.StatusCode, nil
}

type deadlineFreeBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *deadlineFreeBody) Close() error {
	b.cancel()
	return b.ReadCloser.Close()
}

// GetJSON issues a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, op, url string, header http.Header, out any) error {
	resp, err := c.Do(ctx, op, http.MethodGet, url, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// PostJSON issues a POST with a JSON payload and decodes the response.
func (c *Client) PostJSON(ctx context.Context, op, url string, header http.Header, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", op, err)
	}
	h := http.Header{}
	for k, vs := range header {
		h[k] = vs
	}
	h.Set("Content-Type", "application/json")

	resp, err := c.Do(ctx, op, http.MethodPost, url, func() io.Reader {
		return bytes.NewReader(raw)
	}, h)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
