// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package main

import (
	"os"

	"github.com/tomtom215/atlasaudit/internal/cli"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logging.Err(err).Msg("run failed")
		os.Exit(1)
	}
}
