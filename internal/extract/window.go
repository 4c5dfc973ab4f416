// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package extract implements the incremental extraction engine: resolve the
// query window from the checkpoint, page through the upstream audit API,
// normalize and classify records, emit them in timestamp order, and advance
// the checkpoint only after the whole window has been delivered.
package extract

import (
	"time"

	"github.com/tomtom215/atlasaudit/internal/checkpoint"
)

// Window is the half-open time range [Start, End) queried in one run.
type Window struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the window contains no time at all.
func (w Window) Empty() bool {
	return !w.Start.Before(w.End)
}

// Duration returns End - Start, or zero for an empty window.
func (w Window) Duration() time.Duration {
	if w.Empty() {
		return 0
	}
	return w.End.Sub(w.Start)
}

// ResolveWindow computes the query window for a run. Start is the later of
// the checkpoint position and now-offset; End is now. Without a checkpoint
// the window is the full lookback [now-offset, now).
//
// The clamped return is true when the checkpoint was older than the offset
// allows: events between the checkpoint and now-offset are unreachable
// through this path and the caller should warn of possible loss.
//
// A Start at or past End (future checkpoint, clock skew) yields an empty
// window; the run is then a no-op success and the checkpoint is untouched.
func ResolveWindow(cp *checkpoint.Checkpoint, offset time.Duration, now time.Time) (Window, bool) {
	earliest := now.Add(-offset)

	if cp == nil {
		return Window{Start: earliest, End: now}, false
	}

	if cp.LastTimestamp.Before(earliest) {
		return Window{Start: earliest, End: now}, true
	}
	return Window{Start: cp.LastTimestamp, End: now}, false
}
