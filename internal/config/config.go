// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package config provides layered configuration for the collector.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML file (atlasaudit.yaml) for persistent settings
//  3. Environment Variables: override any setting
//
// The collector is a short-lived process run per source by an external
// scheduler, so configuration is immutable after Load() and safe for
// concurrent reads.
package config

import (
	"time"
)

// Config holds all collector configuration.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Err(err).Msg("cannot load configuration")
//	    os.Exit(1)
//	}
//	client := atlassian.NewClient(&cfg.Atlassian)
type Config struct {
	Atlassian  AtlassianConfig  `koanf:"atlassian"`
	Source     SourceConfig     `koanf:"source"`
	Extract    ExtractConfig    `koanf:"extract"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Actions    ActionsConfig    `koanf:"actions"`
	Sink       SinkConfig       `koanf:"sink"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// AtlassianConfig holds upstream API connection settings.
//
// The service account needs organization admin access to read audit records.
// CloudID scopes the per-product audit endpoints (Jira, Confluence); OrgID is
// only needed by the rebuild-actions verb, which enumerates known event
// actions at the organization level.
//
// Environment Variables:
//   - ATLASSIAN_BASE_URL: API gateway (default: https://api.atlassian.com)
//   - ATLASSIAN_CLOUD_ID: site cloud id for the audited product
//   - ATLASSIAN_ORG_ID: organization id (rebuild-actions only)
//   - ATLASSIAN_EMAIL: service account email (basic auth user)
//   - ATLASSIAN_API_KEY: API token (basic auth password)
type AtlassianConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	CloudID           string        `koanf:"cloud_id"`
	OrgID             string        `koanf:"org_id"`
	Email             string        `koanf:"email" validate:"required,email"`
	APIKey            string        `koanf:"api_key" validate:"required"`
	Timeout           time.Duration `koanf:"timeout" validate:"min=1s"`
	MaxRetries        int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay" validate:"min=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
}

// SourceConfig identifies which audit source this invocation extracts.
// Each source is extracted by an independent process invocation with its own
// checkpoint; cross-source parallelism is the scheduler's job.
type SourceConfig struct {
	ID string `koanf:"id" validate:"required,oneof=jira confluence"`
}

// ExtractConfig tunes the extraction window and pagination.
type ExtractConfig struct {
	// OffsetHours bounds how far back a single run will query. As long as the
	// scheduler runs the collector at least once per offset window, no event
	// is skipped; events older than now-offset are unrecoverable through this
	// path and the run logs a warning when it has to clamp.
	OffsetHours float64 `koanf:"offset_hours" validate:"gt=0"`

	// PageSize is the per-request record count against the upstream API.
	PageSize int `koanf:"page_size" validate:"min=1,max=1000"`

	// MaxRecords caps events emitted per run. 0 disables the cap. When the
	// cap truncates a window the checkpoint only advances to the last emitted
	// event, so the remainder is re-queried on the next run.
	MaxRecords int `koanf:"max_records" validate:"min=0"`

	// RunTimeout is the wall-clock budget for a whole run. On timeout the run
	// fails like a fatal fetch error and the checkpoint is untouched.
	RunTimeout time.Duration `koanf:"run_timeout" validate:"min=1s"`
}

// Offset returns OffsetHours as a duration.
func (c ExtractConfig) Offset() time.Duration {
	return time.Duration(c.OffsetHours * float64(time.Hour))
}

// CheckpointConfig selects the checkpoint store backend.
type CheckpointConfig struct {
	// Store is the backend kind: "file" (one JSON file per source, atomic
	// rename) or "badger" (embedded KV under Path).
	Store string `koanf:"store" validate:"oneof=file badger"`

	// Path is the state directory.
	Path string `koanf:"path" validate:"required"`
}

// ActionsConfig locates the action-metadata snapshot.
type ActionsConfig struct {
	// SnapshotPath is the JSON snapshot written by rebuild-actions and read
	// by extraction. A missing snapshot is not an error: events are emitted
	// unclassified.
	SnapshotPath string `koanf:"snapshot_path" validate:"required"`
}

// SinkConfig selects the emission destination.
type SinkConfig struct {
	// Output is "stdout" or a file path to append NDJSON events to.
	Output string `koanf:"output" validate:"required"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
