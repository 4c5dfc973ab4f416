// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a config that passes Validate.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Atlassian.CloudID = "11111111-2222-3333-4444-555555555555"
	cfg.Atlassian.Email = "svc@example.com"
	cfg.Atlassian.APIKey = "token"
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Atlassian.BaseURL != "https://api.atlassian.com" {
		t.Errorf("unexpected base URL: %s", cfg.Atlassian.BaseURL)
	}
	if cfg.Atlassian.MaxRetries != 5 {
		t.Errorf("expected 5 max retries, got %d", cfg.Atlassian.MaxRetries)
	}
	if cfg.Extract.OffsetHours != 24 {
		t.Errorf("expected 24h default offset, got %v", cfg.Extract.OffsetHours)
	}
	if cfg.Extract.PageSize != 100 {
		t.Errorf("expected page size 100, got %d", cfg.Extract.PageSize)
	}
	if cfg.Checkpoint.Store != "file" {
		t.Errorf("expected file checkpoint store, got %s", cfg.Checkpoint.Store)
	}
	if cfg.Sink.Output != "stdout" {
		t.Errorf("expected stdout sink, got %s", cfg.Sink.Output)
	}
}

func TestExtractOffsetDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hours    float64
		expected time.Duration
	}{
		{24, 24 * time.Hour},
		{5, 5 * time.Hour},
		{0.5, 30 * time.Minute},
	}

	for _, tt := range tests {
		c := ExtractConfig{OffsetHours: tt.hours}
		if got := c.Offset(); got != tt.expected {
			t.Errorf("Offset(%v) = %v, want %v", tt.hours, got, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing email",
			mutate:  func(c *Config) { c.Atlassian.Email = "" },
			wantErr: "Email",
		},
		{
			name:    "malformed email",
			mutate:  func(c *Config) { c.Atlassian.Email = "not-an-email" },
			wantErr: "Email",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Atlassian.APIKey = "" },
			wantErr: "APIKey",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Source.ID = "bitbucket" },
			wantErr: "Source",
		},
		{
			name:    "zero offset",
			mutate:  func(c *Config) { c.Extract.OffsetHours = 0 },
			wantErr: "OffsetHours",
		},
		{
			name:    "negative offset",
			mutate:  func(c *Config) { c.Extract.OffsetHours = -3 },
			wantErr: "OffsetHours",
		},
		{
			name:    "page size too large",
			mutate:  func(c *Config) { c.Extract.PageSize = 5000 },
			wantErr: "PageSize",
		},
		{
			name:    "unknown checkpoint store",
			mutate:  func(c *Config) { c.Checkpoint.Store = "redis" },
			wantErr: "Store",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateExtractionRequiresCloudID(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	cfg.Atlassian.CloudID = ""
	if err := cfg.ValidateExtraction(); err == nil {
		t.Error("expected error for missing cloud id")
	}

	cfg.Atlassian.CloudID = "cloud"
	if err := cfg.ValidateExtraction(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRebuildRequiresOrgID(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	if err := cfg.ValidateRebuild(); err == nil {
		t.Error("expected error for missing org id")
	}

	cfg.Atlassian.OrgID = "org"
	if err := cfg.ValidateRebuild(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		expected string
	}{
		{"ATLASSIAN_API_KEY", "atlassian.api_key"},
		{"ATLASSIAN_CLOUD_ID", "atlassian.cloud_id"},
		{"SOURCE_ID", "source.id"},
		{"EXTRACT_OFFSET_HOURS", "extract.offset_hours"},
		{"CHECKPOINT_STORE", "checkpoint.store"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("ATLASSIAN_CLOUD_ID", "env-cloud")
	t.Setenv("ATLASSIAN_EMAIL", "svc@example.com")
	t.Setenv("ATLASSIAN_API_KEY", "env-token")
	t.Setenv("SOURCE_ID", "confluence")
	t.Setenv("EXTRACT_OFFSET_HOURS", "5")
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Atlassian.CloudID != "env-cloud" {
		t.Errorf("expected env cloud id, got %s", cfg.Atlassian.CloudID)
	}
	if cfg.Source.ID != "confluence" {
		t.Errorf("expected confluence source, got %s", cfg.Source.ID)
	}
	if cfg.Extract.OffsetHours != 5 {
		t.Errorf("expected 5h offset, got %v", cfg.Extract.OffsetHours)
	}
	// Defaults survive where no override exists.
	if cfg.Extract.PageSize != 100 {
		t.Errorf("expected default page size, got %d", cfg.Extract.PageSize)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlasaudit.yaml")
	content := `
atlassian:
  cloud_id: file-cloud
  email: file@example.com
  api_key: file-token
extract:
  offset_hours: 12
  page_size: 50
sink:
  output: /var/log/atlasaudit/events.ndjson
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Atlassian.CloudID != "file-cloud" {
		t.Errorf("expected file cloud id, got %s", cfg.Atlassian.CloudID)
	}
	if cfg.Extract.OffsetHours != 12 {
		t.Errorf("expected 12h offset, got %v", cfg.Extract.OffsetHours)
	}
	if cfg.Extract.PageSize != 50 {
		t.Errorf("expected page size 50, got %d", cfg.Extract.PageSize)
	}
	if cfg.Sink.Output != "/var/log/atlasaudit/events.ndjson" {
		t.Errorf("unexpected sink output: %s", cfg.Sink.Output)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlasaudit.yaml")
	content := `
atlassian:
  cloud_id: file-cloud
  email: file@example.com
  api_key: file-token
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("ATLASSIAN_CLOUD_ID", "env-cloud")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Atlassian.CloudID != "env-cloud" {
		t.Errorf("expected env override to win, got %s", cfg.Atlassian.CloudID)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("ATLASSIAN_EMAIL", "not-an-email")
	t.Setenv("ATLASSIAN_API_KEY", "token")
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected validation failure for malformed email")
	}
}
