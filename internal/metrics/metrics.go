// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package metrics provides per-run Prometheus counters.
//
// The collector is a short-lived process with no scrape endpoint, so metrics
// live on a per-run registry and are gathered into the structured log at the
// end of the run. The monitoring pipeline picks them up from the run summary
// line alongside the emitted events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Run holds the counters for one extraction run.
type Run struct {
	registry *prometheus.Registry

	// EventsEmitted counts canonical events handed to the sink.
	EventsEmitted prometheus.Counter

	// RecordsSkipped counts raw records dropped for missing id/timestamp.
	RecordsSkipped prometheus.Counter

	// UnclassifiedActions counts emitted events whose action id had no
	// metadata entry.
	UnclassifiedActions prometheus.Counter

	// PagesFetched counts upstream pages retrieved.
	PagesFetched prometheus.Counter

	// RetryAttempts counts HTTP retries (rate limit and transient failures).
	RetryAttempts prometheus.Counter
}

// NewRun creates a fresh registry and counter set for one run.
func NewRun(source string) *Run {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"source": source}

	r := &Run{
		registry: registry,
		EventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atlasaudit_events_emitted_total",
			Help:        "Canonical audit events handed to the emission sink",
			ConstLabels: labels,
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atlasaudit_records_skipped_total",
			Help:        "Raw records skipped for missing or malformed id/timestamp",
			ConstLabels: labels,
		}),
		UnclassifiedActions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atlasaudit_unclassified_actions_total",
			Help:        "Emitted events with no action-metadata match",
			ConstLabels: labels,
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atlasaudit_pages_fetched_total",
			Help:        "Upstream audit API pages retrieved",
			ConstLabels: labels,
		}),
		RetryAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "atlasaudit_retry_attempts_total",
			Help:        "HTTP retries for rate-limited or transient failures",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		r.EventsEmitted,
		r.RecordsSkipped,
		r.UnclassifiedActions,
		r.PagesFetched,
		r.RetryAttempts,
	)

	return r
}

// Snapshot gathers the current counter values keyed by metric name.
func (r *Run) Snapshot() map[string]float64 {
	out := make(map[string]float64)

	families, err := r.registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				out[mf.GetName()] = c.GetValue()
			}
		}
	}

	return out
}

// LogSummary writes the gathered counters as one structured log event.
func (r *Run) LogSummary(logger zerolog.Logger) {
	ev := logger.Info()
	for name, value := range r.Snapshot() {
		ev = ev.Float64(name, value)
	}
	ev.Msg("run counters")
}
