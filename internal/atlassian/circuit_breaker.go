// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package atlassian

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/atlasaudit/internal/config"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

// CircuitBreakerClient wraps Client with circuit breaker protection so a
// dead or degraded Atlassian gateway fails the run quickly instead of
// grinding through the full retry ladder on every page.
//
// The breaker uses real time (via sony/gobreaker) for its timeout
// calculations. Unit tests should exercise the wrapped client directly.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates an Atlassian API client with circuit
// breaker protection. The circuit opens after 3 consecutive failures and
// stays open for 30 seconds before probing again; within a short-lived
// extraction run an open circuit usually means the run is over.
func NewCircuitBreakerClient(cfg *config.AtlassianConfig) *CircuitBreakerClient {
	client := NewClient(cfg)
	cbName := "atlassian-api"

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("[CIRCUIT BREAKER] State transition")
		},

		// Auth failures are deterministic; tripping the breaker on them
		// only obscures the real error.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAuth)
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps an API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Str("breaker", cbc.name).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: circuit open: %s", ErrTransient, err)
		}
		return nil, err
	}
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToString converts circuit breaker state to string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// SetRetryHook forwards to the wrapped client.
func (cbc *CircuitBreakerClient) SetRetryHook(hook func()) {
	cbc.client.SetRetryHook(hook)
}

// JiraAuditRecords retrieves one page of Jira audit records with circuit
// breaker protection.
func (cbc *CircuitBreakerClient) JiraAuditRecords(ctx context.Context, q JiraQuery) (*JiraAuditResponse, error) {
	return castResult[JiraAuditResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.JiraAuditRecords(ctx, q)
	}))
}

// ConfluenceAuditRecords retrieves one page of Confluence audit records with
// circuit breaker protection.
func (cbc *CircuitBreakerClient) ConfluenceAuditRecords(ctx context.Context, q ConfluenceQuery) (*ConfluenceAuditResponse, error) {
	return castResult[ConfluenceAuditResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.ConfluenceAuditRecords(ctx, q)
	}))
}

// EventActions retrieves one page of the event-actions catalog with circuit
// breaker protection.
func (cbc *CircuitBreakerClient) EventActions(ctx context.Context, cursor string) (*EventActionsResponse, string, error) {
	type pageWithNext struct {
		page *EventActionsResponse
		next string
	}
	result, err := castResult[pageWithNext](cbc.execute(func() (interface{}, error) {
		page, next, err := cbc.client.EventActions(ctx, cursor)
		if err != nil {
			return nil, err
		}
		return &pageWithNext{page: page, next: next}, nil
	}))
	if err != nil {
		return nil, "", err
	}
	return result.page, result.next, nil
}
