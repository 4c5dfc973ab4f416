// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package cli wires the collector's verbs: extract (commit mode), peek
// (no-commit verification), and rebuild-actions (refresh the action table
// snapshot). Each verb is one short-lived run; the external scheduler is
// the retry loop.
package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tomtom215/atlasaudit/internal/config"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the atlasaudit root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "atlasaudit",
		Short: "Atlassian Cloud audit log collector",
		Long: `Atlasaudit incrementally extracts Jira and Confluence audit events,
classifies them against a cached action-metadata table, and emits them as
newline-delimited JSON for a downstream security-monitoring pipeline.

Each invocation is one run: resolve the query window from the per-source
checkpoint, page through the upstream API, emit events in timestamp order,
and advance the checkpoint only after the whole window was delivered.`,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewExtractCommand(opts))
	cmd.AddCommand(NewPeekCommand(opts))
	cmd.AddCommand(NewRebuildActionsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig loads configuration honoring the --config flag and initializes
// the global logger for the run. Returns the config and the run id attached
// to every log line.
func loadConfig(opts *RootOptions) (*config.Config, string, error) {
	if opts.ConfigPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, opts.ConfigPath); err != nil {
			return nil, "", fmt.Errorf("set config path: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	runID := uuid.NewString()
	logging.SetLogger(logging.With().Str("run_id", runID).Logger())

	return cfg, runID, nil
}
