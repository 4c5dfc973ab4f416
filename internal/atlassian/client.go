// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package atlassian provides the HTTP client for the Atlassian Cloud audit
// APIs: per-product audit record pages (Jira, Confluence) and the
// organization event-actions listing.
//
// Resilience:
//   - client-side token-bucket limiter on all outbound requests
//   - bounded exponential backoff on HTTP 429 (honoring Retry-After) and on
//     5xx/transport failures
//   - HTTP 401/403 fail immediately, no retry
//   - context cancellation respected during backoff waits
//
// A circuit-breaker wrapper is available via NewCircuitBreakerClient.
package atlassian

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/atlasaudit/internal/config"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

// maxErrorBodySize limits how much of a response body is read for error
// reporting, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// API is the audit surface consumed by the fetchers and the action-metadata
// rebuilder. Implemented by Client and by the circuit-breaker wrapper.
type API interface {
	JiraAuditRecords(ctx context.Context, q JiraQuery) (*JiraAuditResponse, error)
	ConfluenceAuditRecords(ctx context.Context, q ConfluenceQuery) (*ConfluenceAuditResponse, error)
	EventActions(ctx context.Context, cursor string) (*EventActionsResponse, string, error)
}

// Client handles communication with the Atlassian Cloud APIs.
//
// Thread safety: safe for concurrent use; each request builds its own
// http.Request. The collector itself is single-threaded per run.
type Client struct {
	baseURL        string
	cloudID        string
	orgID          string
	email          string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration

	// retryHook, when set, is invoked once per retry attempt. The extraction
	// driver wires this to the run's retry counter.
	retryHook func()
}

// NewClient creates an Atlassian API client from configuration.
func NewClient(cfg *config.AtlassianConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		cloudID: cfg.CloudID,
		orgID:   cfg.OrgID,
		email:   cfg.Email,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// SetRetryHook registers a callback invoked once per retry attempt.
func (c *Client) SetRetryHook(fn func()) {
	c.retryHook = fn
}

func (c *Client) noteRetry() {
	if c.retryHook != nil {
		c.retryHook()
	}
}

// doRequestWithRetry executes a GET with basic auth, the client-side
// limiter, and bounded retries. 401/403 fail immediately; 429 and 5xx or
// transport failures retry with exponential backoff, 429 honoring a
// Retry-After header. The returned response has status < 500 and is not a
// rate-limit or auth failure; callers still validate 200.
func (c *Client) doRequestWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(c.email, c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrTransient, err)
			if attempt == c.maxRetries {
				break
			}
			c.noteRetry()
			logging.Warn().Err(err).Int("attempt", attempt+1).Msg("HTTP request failed, retrying")
			if err := c.wait(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w (HTTP %d)", ErrAuth, resp.StatusCode)

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := c.backoffDelay(attempt)
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
					delay = time.Duration(seconds) * time.Second
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w (HTTP 429)", ErrRateLimited)
			if attempt == c.maxRetries {
				break
			}
			c.noteRetry()
			logging.Warn().Dur("delay", delay).Int("attempt", attempt+1).Msg("rate limited, backing off")
			if err := c.wait(ctx, delay); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= 500:
			body := readBodyForError(resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, string(body))
			if attempt == c.maxRetries {
				break
			}
			c.noteRetry()
			logging.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("server error, retrying")
			if err := c.wait(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue

		default:
			return resp, nil
		}

		break
	}

	return nil, lastErr
}

// backoffDelay computes the exponential backoff delay for an attempt:
// base, 2*base, 4*base, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.retryBaseDelay * time.Duration(1<<uint(attempt))
}

// wait sleeps for delay or until the context is cancelled.
func (c *Client) wait(ctx context.Context, delay time.Duration) error {
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getJSON performs a retried GET and decodes a 200 response into result.
// A non-200 (post-retry) status is an error; an undecodable body is
// ErrMalformedPage.
func (c *Client) getJSON(ctx context.Context, reqURL string, result interface{}) error {
	resp, err := c.doRequestWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	return nil
}
