// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"atlasaudit.yaml",
	"atlasaudit.yml",
	"/etc/atlasaudit/config.yaml",
	"/etc/atlasaudit/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. These are applied
// first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Atlassian: AtlassianConfig{
			BaseURL:           "https://api.atlassian.com",
			CloudID:           "",
			OrgID:             "",
			Email:             "",
			APIKey:            "",
			Timeout:           60 * time.Second,
			MaxRetries:        5,
			RetryBaseDelay:    2 * time.Second,
			RequestsPerSecond: 5,
		},
		Source: SourceConfig{
			ID: "jira",
		},
		Extract: ExtractConfig{
			OffsetHours: 24,
			PageSize:    100,
			MaxRecords:  1000,
			RunTimeout:  10 * time.Minute,
		},
		Checkpoint: CheckpointConfig{
			Store: "file",
			Path:  "/var/lib/atlasaudit/state",
		},
		Actions: ActionsConfig{
			SnapshotPath: "/var/lib/atlasaudit/actions.json",
		},
		Sink: SinkConfig{
			Output: "stdout",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment variables never
// pollute the configuration.
//
// Examples:
//   - ATLASSIAN_API_KEY -> atlassian.api_key
//   - EXTRACT_OFFSET_HOURS -> extract.offset_hours
//   - CHECKPOINT_STORE -> checkpoint.store
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Atlassian API mappings
		"atlassian_base_url":            "atlassian.base_url",
		"atlassian_cloud_id":            "atlassian.cloud_id",
		"atlassian_org_id":              "atlassian.org_id",
		"atlassian_email":               "atlassian.email",
		"atlassian_api_key":             "atlassian.api_key",
		"atlassian_timeout":             "atlassian.timeout",
		"atlassian_max_retries":         "atlassian.max_retries",
		"atlassian_retry_base_delay":    "atlassian.retry_base_delay",
		"atlassian_requests_per_second": "atlassian.requests_per_second",

		// Source mapping
		"source_id": "source.id",

		// Extraction mappings
		"extract_offset_hours": "extract.offset_hours",
		"extract_page_size":    "extract.page_size",
		"extract_max_records":  "extract.max_records",
		"extract_run_timeout":  "extract.run_timeout",

		// Checkpoint store mappings
		"checkpoint_store": "checkpoint.store",
		"checkpoint_path":  "checkpoint.path",

		// Action metadata mapping
		"actions_snapshot_path": "actions.snapshot_path",

		// Sink mapping
		"sink_output": "sink.output",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
