// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package sink writes canonical audit events downstream as NDJSON, one
// event per line. Any write failure aborts the run: the checkpoint only
// advances after every event of the window has been delivered, so a partial
// emission is re-fetched next run rather than lost.
package sink

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/atlasaudit/internal/config"
	"github.com/tomtom215/atlasaudit/internal/models"
)

// Sink delivers canonical events downstream.
type Sink interface {
	Emit(event *models.AuditEvent) error
	Close() error
}

// NDJSONSink writes one JSON document per line to an io.Writer.
type NDJSONSink struct {
	w       io.Writer
	closer  io.Closer
	emitted int
}

// New creates a sink from configuration. "stdout" (or empty) writes to
// standard output; anything else is treated as a file path opened in
// append mode.
func New(cfg *config.SinkConfig) (*NDJSONSink, error) {
	switch cfg.Output {
	case "", "stdout":
		return NewNDJSONSink(os.Stdout), nil
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open sink output: %w", err)
		}
		sink := NewNDJSONSink(f)
		sink.closer = f
		return sink, nil
	}
}

// NewNDJSONSink wraps a writer. The caller owns the writer's lifecycle.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w}
}

// Emit writes one event as a single NDJSON line.
func (s *NDJSONSink) Emit(event *models.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	data = append(data, '\n')

	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write event %s: %w", event.ID, err)
	}
	s.emitted++
	return nil
}

// Emitted reports how many events have been written.
func (s *NDJSONSink) Emitted() int {
	return s.emitted
}

// Close closes the underlying file when the sink owns one.
func (s *NDJSONSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
