// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/atlasaudit/internal/actions"
	"github.com/tomtom215/atlasaudit/internal/atlassian"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

// NewRebuildActionsCommand creates the rebuild-actions verb. Rebuilding is
// deliberately out-of-band: extraction runs only read the snapshot, so a
// normal run never performs an unbounded catalog walk.
func NewRebuildActionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-actions",
		Short: "Refresh the action-metadata table from the event-actions catalog",
		Long: `Fetch the full organization event-actions catalog and atomically
replace the local action table snapshot. Run this when classification
coverage drops (rising unclassified counts) or after Atlassian introduces
new products or action types.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRebuild(cmd.Context(), rootOpts)
		},
	}
}

func runRebuild(parent context.Context, rootOpts *RootOptions) error {
	cfg, _, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRebuild(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Extract.RunTimeout)
	defer cancel()

	api := atlassian.NewCircuitBreakerClient(&cfg.Atlassian)
	table, err := actions.NewRebuilder(api, cfg.Actions.SnapshotPath).Rebuild(ctx)
	if err != nil {
		logging.Err(err).Msg("action table rebuild failed, existing snapshot kept")
		return err
	}

	logging.Info().Int("actions", table.Len()).Msg("action table rebuild complete")
	return nil
}
