// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package checkpoint

import (
	"fmt"

	"github.com/tomtom215/atlasaudit/internal/config"
)

// NewStore creates a checkpoint store from configuration. The file backend
// treats cfg.Path as a directory of per-source JSON files; the badger
// backend treats it as a BadgerDB directory.
func NewStore(cfg *config.CheckpointConfig) (Store, error) {
	switch cfg.Store {
	case "file":
		return NewFileStore(cfg.Path)
	case "badger":
		return NewBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown checkpoint store type %q", cfg.Store)
	}
}
