// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/atlasaudit/internal/actions"
	"github.com/tomtom215/atlasaudit/internal/atlassian"
	"github.com/tomtom215/atlasaudit/internal/checkpoint"
	"github.com/tomtom215/atlasaudit/internal/extract"
	"github.com/tomtom215/atlasaudit/internal/logging"
	"github.com/tomtom215/atlasaudit/internal/metrics"
	"github.com/tomtom215/atlasaudit/internal/sink"
)

// NewExtractCommand creates the extract verb: one committing extraction run.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction and advance the checkpoint",
		Long: `Extract audit events for the configured source and advance its
checkpoint. Exit code 0 covers the empty-window no-op; any failure leaves
the checkpoint exactly as it was and exits non-zero so the scheduler's next
interval retries the window.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtraction(cmd.Context(), rootOpts, false)
		},
	}
}

// NewPeekCommand creates the peek verb: extraction without commit.
func NewPeekCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Fetch and emit events without advancing the checkpoint",
		Long: `Run the extraction pipeline but skip the checkpoint commit. Useful to
verify credentials, window resolution, and classification without mutating
state; the next extract run covers the same window again.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtraction(cmd.Context(), rootOpts, true)
		},
	}
}

func runExtraction(parent context.Context, rootOpts *RootOptions, peek bool) error {
	cfg, _, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	if err := cfg.ValidateExtraction(); err != nil {
		return err
	}

	logger := logging.With().Str("source", cfg.Source.ID).Logger()
	logging.SetLogger(logger)

	store, err := checkpoint.NewStore(&cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Err(err).Msg("closing checkpoint store")
		}
	}()

	table, err := actions.LoadFromFile(cfg.Actions.SnapshotPath)
	if err != nil {
		return fmt.Errorf("load action table: %w", err)
	}

	run := metrics.NewRun(cfg.Source.ID)
	api := atlassian.NewCircuitBreakerClient(&cfg.Atlassian)
	api.SetRetryHook(func() { run.RetryAttempts.Inc() })

	fetcher, err := extract.NewFetcher(cfg.Source.ID, api, cfg.Extract.PageSize)
	if err != nil {
		return err
	}

	out, err := sink.New(&cfg.Sink)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			logging.Err(err).Msg("closing sink")
		}
	}()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Extract.RunTimeout)
	defer cancel()

	driver := extract.NewDriver(store, fetcher, extract.NewNormalizer(table, cfg.Atlassian.OrgID), out, run, extract.Options{
		SourceID:   cfg.Source.ID,
		Offset:     cfg.Extract.Offset(),
		MaxRecords: cfg.Extract.MaxRecords,
		Peek:       peek,
	})

	result, err := driver.Run(ctx)
	run.LogSummary(logging.Logger())
	if err != nil {
		logging.Err(err).Msg("extraction run failed")
		return err
	}

	if result.Truncated {
		logging.Warn().Int("max_records", cfg.Extract.MaxRecords).Msg("run hit the record cap, remainder deferred")
	}
	return nil
}
