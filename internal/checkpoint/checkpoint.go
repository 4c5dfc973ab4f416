// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package checkpoint persists the per-source extraction high-water mark.
// A checkpoint records the newest event already delivered downstream; the
// next run resumes from it. Commit is atomic in both backends, so a run
// that dies mid-extraction leaves the previous checkpoint intact and the
// next run re-fetches rather than skips.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no checkpoint has ever been committed for a source.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the durable extraction position for one source.
type Checkpoint struct {
	SourceID string `json:"sourceId"`

	// LastTimestamp is the timestamp of the newest event delivered.
	LastTimestamp time.Time `json:"lastTimestamp"`

	// LastEventID breaks ties among events sharing LastTimestamp. Empty
	// when the checkpoint was advanced to a window edge with no event at
	// that exact instant.
	LastEventID string `json:"lastEventId"`

	// CommittedAt records when this checkpoint was written.
	CommittedAt time.Time `json:"committedAt"`
}

// Store persists checkpoints. Implementations: file-per-source JSON and
// BadgerDB.
type Store interface {
	// Load returns the checkpoint for a source, or ErrNotFound.
	Load(ctx context.Context, sourceID string) (*Checkpoint, error)

	// Commit atomically replaces the checkpoint for a source.
	Commit(ctx context.Context, cp *Checkpoint) error

	// Close releases underlying resources.
	Close() error
}
