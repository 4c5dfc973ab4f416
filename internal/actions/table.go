// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package actions maintains the action-metadata table used to classify raw
// audit records. The table is a local snapshot of the organization
// event-actions catalog, rebuilt on demand; extraction runs never touch the
// catalog endpoint, they only read the snapshot.
package actions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/atlasaudit/internal/logging"
)

// Metadata describes one known action id.
type Metadata struct {
	ActionGroup string `json:"actionGroup"`
	Description string `json:"description"`
}

// Table maps action ids to classification metadata. A nil map behaves as an
// empty table: every lookup misses and the caller marks the event
// unclassified.
type Table struct {
	entries map[string]Metadata
}

// NewTable builds a table from explicit entries. Used by the rebuilder and
// by tests.
func NewTable(entries map[string]Metadata) *Table {
	return &Table{entries: entries}
}

// LoadFromFile reads a snapshot written by the rebuilder. A missing file is
// not an error: extraction must proceed with every event unclassified until
// the operator rebuilds the table.
func LoadFromFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Str("path", path).Msg("action table snapshot missing, classifying nothing")
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read action table: %w", err)
	}

	var entries map[string]Metadata
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse action table %s: %w", path, err)
	}

	return &Table{entries: entries}, nil
}

// Classify looks up metadata for an action id. The second return reports
// whether the id is known.
func (t *Table) Classify(actionID string) (Metadata, bool) {
	md, ok := t.entries[actionID]
	return md, ok
}

// Len reports the number of known action ids.
func (t *Table) Len() int {
	return len(t.entries)
}
