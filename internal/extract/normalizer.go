// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package extract

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/atlasaudit/internal/actions"
	"github.com/tomtom215/atlasaudit/internal/models"
)

// Per-record normalization failures. These mark a counted skip, never a run
// failure.
var (
	ErrMissingID        = errors.New("record has no id")
	ErrMissingTimestamp = errors.New("record has no usable timestamp")
)

// jiraCreatedLayouts are the timestamp shapes observed in Jira audit
// records: millisecond precision with numeric zone offset, plus fallbacks.
var jiraCreatedLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

// Normalizer maps raw records to canonical events, resolving classification
// from a read-only action table snapshot.
type Normalizer struct {
	table *actions.Table
	orgID string
}

// NewNormalizer creates a normalizer over one run's action table snapshot.
func NewNormalizer(table *actions.Table, orgID string) *Normalizer {
	return &Normalizer{table: table, orgID: orgID}
}

// Normalize converts one raw record to a canonical event. classified is
// false when the action table has no entry for the record's action id; the
// event is still returned, unclassified. A missing id or unparseable
// timestamp returns an error and the caller counts the record as skipped.
func (n *Normalizer) Normalize(raw *models.RawRecord) (event *models.AuditEvent, classified bool, err error) {
	if raw.ID == "" {
		return nil, false, ErrMissingID
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMissingTimestamp, err)
	}

	event = &models.AuditEvent{
		ID:            raw.ID,
		Timestamp:     ts,
		Source:        raw.Source,
		OrgID:         n.orgID,
		ActorID:       raw.ActorID,
		ActorEmail:    raw.ActorEmail,
		ActionID:      raw.ActionID,
		Target:        raw.Target,
		RemoteAddress: raw.RemoteAddress,
		Context:       raw.Attributes,
	}

	if md, ok := n.table.Classify(raw.ActionID); ok {
		event.ActionGroup = md.ActionGroup
		event.ActionDescription = md.Description
		classified = true
	}

	return event, classified, nil
}

// parseTimestamp accepts the upstream timestamp representations: Jira's
// zoned string forms and Confluence's epoch milliseconds. The result is
// normalized to UTC.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}

	for _, layout := range jiraCreatedLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
