// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/atlasaudit/internal/atlassian"
	"github.com/tomtom215/atlasaudit/internal/logging"
)

// maxCatalogPages bounds cursor-following so a catalog endpoint that loops
// its next link cannot spin forever.
const maxCatalogPages = 1000

// Rebuilder refreshes the action table snapshot from the organization
// event-actions catalog.
type Rebuilder struct {
	api  atlassian.API
	path string
}

// NewRebuilder creates a rebuilder that writes its snapshot to path.
func NewRebuilder(api atlassian.API, path string) *Rebuilder {
	return &Rebuilder{api: api, path: path}
}

// Rebuild pages through the full catalog and atomically replaces the
// snapshot file. The existing snapshot is untouched until every page has
// been fetched, so a failed rebuild never degrades classification.
func (r *Rebuilder) Rebuild(ctx context.Context) (*Table, error) {
	entries := make(map[string]Metadata)

	cursor := ""
	for page := 0; ; page++ {
		if page >= maxCatalogPages {
			return nil, fmt.Errorf("event-actions catalog exceeded %d pages, aborting", maxCatalogPages)
		}

		resp, next, err := r.api.EventActions(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch event-actions page %d: %w", page, err)
		}

		for _, action := range resp.Data {
			id := action.Attributes.ID
			if id == "" {
				id = action.ID
			}
			if id == "" {
				continue
			}
			entries[id] = Metadata{
				ActionGroup: action.Attributes.Group,
				Description: action.Attributes.DisplayName,
			}
		}

		logging.Debug().Int("page", page).Int("actions", len(entries)).Msg("fetched event-actions page")

		if next == "" {
			break
		}
		cursor = next
	}

	if err := r.writeSnapshot(entries); err != nil {
		return nil, err
	}

	logging.Info().Int("actions", len(entries)).Str("path", r.path).Msg("action table rebuilt")
	return NewTable(entries), nil
}

// writeSnapshot writes entries to a temp file next to the snapshot and
// renames it into place.
func (r *Rebuilder) writeSnapshot(entries map[string]Metadata) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal action table: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
