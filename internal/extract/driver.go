// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tomtom215/atlasaudit/internal/checkpoint"
	"github.com/tomtom215/atlasaudit/internal/logging"
	"github.com/tomtom215/atlasaudit/internal/metrics"
	"github.com/tomtom215/atlasaudit/internal/models"
	"github.com/tomtom215/atlasaudit/internal/sink"
)

// Options configures one extraction run.
type Options struct {
	SourceID string

	// Offset bounds how far back a run will query when the checkpoint is
	// old or absent.
	Offset time.Duration

	// MaxRecords caps how many events one run emits; 0 is unlimited. When
	// the cap truncates a window, the checkpoint advances only to the last
	// emitted event so the remainder is picked up next run.
	MaxRecords int

	// Peek fetches and emits without committing the checkpoint.
	Peek bool

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	SourceID string
	Window   Window

	// Clamped reports that the checkpoint predated the offset lookback and
	// events may have been permanently missed.
	Clamped bool

	// Truncated reports that MaxRecords cut the window short.
	Truncated bool

	EventsEmitted  int
	RecordsSkipped int
	Unclassified   int
	PagesFetched   int

	// Committed is false for peek runs and empty-window no-ops.
	Committed bool

	// Checkpoint is the committed position, nil when nothing was committed.
	Checkpoint *checkpoint.Checkpoint
}

// Driver orchestrates one extraction run: load checkpoint, resolve window,
// fetch every page, normalize and emit in timestamp order, then commit. Any
// fatal error before commit leaves the checkpoint untouched, so the next
// scheduled run retries the same or a superset window.
type Driver struct {
	store      checkpoint.Store
	fetcher    Fetcher
	normalizer *Normalizer
	sink       sink.Sink
	run        *metrics.Run
	opts       Options
}

// NewDriver assembles a driver for one run.
func NewDriver(store checkpoint.Store, fetcher Fetcher, normalizer *Normalizer, out sink.Sink, run *metrics.Run, opts Options) *Driver {
	return &Driver{
		store:      store,
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       out,
		run:        run,
		opts:       opts,
	}
}

// Run executes the extraction state machine. A nil error means the run
// succeeded, including the empty-window no-op. On error the checkpoint is
// guaranteed unchanged except for the checkpoint-write failure itself,
// which is reported after events were already emitted.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	now := time.Now
	if d.opts.Now != nil {
		now = d.opts.Now
	}

	cp, err := d.store.Load(ctx, d.opts.SourceID)
	if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	window, clamped := ResolveWindow(cp, d.opts.Offset, now())
	result := &Result{
		SourceID: d.opts.SourceID,
		Window:   window,
		Clamped:  clamped,
	}

	if clamped {
		logging.Warn().
			Str("source", d.opts.SourceID).
			Time("checkpoint", cp.LastTimestamp).
			Time("window_start", window.Start).
			Msg("checkpoint older than lookback offset, events may have been missed")
	}

	if window.Empty() {
		logging.Info().Str("source", d.opts.SourceID).Msg("empty window, nothing to extract")
		return result, nil
	}

	logging.Info().
		Str("source", d.opts.SourceID).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Bool("peek", d.opts.Peek).
		Msg("extraction window resolved")

	raws, pages, err := d.fetchWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch window: %w", err)
	}
	result.PagesFetched = pages

	events := d.normalize(raws, result)
	events = filterWindow(events, window, cp)

	sortEvents(events)

	if d.opts.MaxRecords > 0 && len(events) > d.opts.MaxRecords {
		events = events[:d.opts.MaxRecords]
		result.Truncated = true
		logging.Warn().
			Str("source", d.opts.SourceID).
			Int("max_records", d.opts.MaxRecords).
			Msg("record cap reached, remainder deferred to next run")
	}

	for _, event := range events {
		if err := d.sink.Emit(event); err != nil {
			return nil, fmt.Errorf("emit event: %w", err)
		}
		result.EventsEmitted++
		d.run.EventsEmitted.Inc()
	}

	if d.opts.Peek {
		logging.Info().Str("source", d.opts.SourceID).Int("events", result.EventsEmitted).Msg("peek run complete, checkpoint unchanged")
		return result, nil
	}

	newCp := d.nextCheckpoint(events, window, now())
	if err := d.store.Commit(ctx, newCp); err != nil {
		// Extraction succeeded but the position was not persisted; the run
		// must still be reported failed so the duplicate work next run is
		// visible to monitoring.
		return result, fmt.Errorf("commit checkpoint: %w", err)
	}
	result.Committed = true
	result.Checkpoint = newCp

	logging.Info().
		Str("source", d.opts.SourceID).
		Int("events", result.EventsEmitted).
		Int("skipped", result.RecordsSkipped).
		Int("unclassified", result.Unclassified).
		Time("checkpoint", newCp.LastTimestamp).
		Msg("extraction run complete")

	return result, nil
}

// fetchWindow pulls every page of the window. Any page error abandons the
// whole window.
func (d *Driver) fetchWindow(ctx context.Context, window Window) ([]models.RawRecord, int, error) {
	var raws []models.RawRecord
	var cursor *PageCursor
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, pages, err
		}

		page, next, err := d.fetcher.FetchPage(ctx, window, cursor)
		if err != nil {
			return nil, pages, err
		}
		pages++
		d.run.PagesFetched.Inc()
		raws = append(raws, page...)

		if next == nil {
			return raws, pages, nil
		}
		cursor = next
	}
}

// normalize converts raw records, counting skips and classification misses.
func (d *Driver) normalize(raws []models.RawRecord, result *Result) []*models.AuditEvent {
	events := make([]*models.AuditEvent, 0, len(raws))
	for i := range raws {
		event, classified, err := d.normalizer.Normalize(&raws[i])
		if err != nil {
			result.RecordsSkipped++
			d.run.RecordsSkipped.Inc()
			logging.Debug().Err(err).Str("source", raws[i].Source).Msg("skipping malformed record")
			continue
		}
		if !classified {
			result.Unclassified++
			d.run.UnclassifiedActions.Inc()
		}
		events = append(events, event)
	}
	return events
}

// filterWindow drops events outside [window.Start, window.End) and, at the
// window-start boundary, events at the checkpoint instant already delivered
// by the previous run (id at or below the checkpoint tie-break).
func filterWindow(events []*models.AuditEvent, window Window, cp *checkpoint.Checkpoint) []*models.AuditEvent {
	kept := events[:0]
	for _, event := range events {
		if event.Timestamp.Before(window.Start) || !event.Timestamp.Before(window.End) {
			continue
		}
		if cp != nil && event.Timestamp.Equal(cp.LastTimestamp) &&
			cp.LastEventID != "" && compareEventIDs(event.ID, cp.LastEventID) <= 0 {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// sortEvents orders by timestamp ascending, breaking ties by id so the
// emission order and the checkpoint tie-break agree.
func sortEvents(events []*models.AuditEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return compareEventIDs(events[i].ID, events[j].ID) < 0
	})
}

// compareEventIDs orders two record ids, numerically when both are numeric
// (Jira ids) and lexicographically otherwise.
func compareEventIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// nextCheckpoint computes the position to commit: the newest emitted event,
// or the window end when the window held no events so empty windows still
// advance and are not re-scanned every run.
func (d *Driver) nextCheckpoint(events []*models.AuditEvent, window Window, committedAt time.Time) *checkpoint.Checkpoint {
	cp := &checkpoint.Checkpoint{
		SourceID:    d.opts.SourceID,
		CommittedAt: committedAt,
	}

	if len(events) == 0 {
		cp.LastTimestamp = window.End
		return cp
	}

	// Events are sorted, so the last one carries the maximum timestamp. The
	// tie-break id lets the next run skip exactly this event when its window
	// starts at the same instant.
	last := events[len(events)-1]
	cp.LastTimestamp = last.Timestamp
	cp.LastEventID = last.ID
	return cp
}
