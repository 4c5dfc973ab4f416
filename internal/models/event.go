// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

// Package models defines the canonical audit event emitted to the downstream
// pipeline and the raw intermediate record produced by the fetchers.
package models

import (
	"time"
)

// AuditEvent is the canonical, normalized audit event. One event is emitted
// per line as JSON; downstream deduplicates by ID, so ID must be stable for
// the same upstream record across runs.
//
// Invariants: ID and Timestamp are always non-empty on emitted events;
// within a run events are emitted in non-decreasing Timestamp order.
type AuditEvent struct {
	// ID is the upstream-assigned record identifier, unique per source.
	ID string `json:"id"`

	// Timestamp is the authoritative event time, not ingestion time.
	Timestamp time.Time `json:"timestamp"`

	// Source identifies the audited product: "jira" or "confluence".
	Source string `json:"source"`

	// OrgID carries the configured cloud/organization identifier through to
	// the downstream pipeline.
	OrgID string `json:"orgId,omitempty"`

	ActorID    string `json:"actorId,omitempty"`
	ActorEmail string `json:"actorEmail,omitempty"`

	// ActionID is the raw upstream action code. ActionGroup and
	// ActionDescription are resolved from the action-metadata table and stay
	// empty when the table has no matching entry.
	ActionID          string `json:"actionId"`
	ActionGroup       string `json:"actionGroup,omitempty"`
	ActionDescription string `json:"actionDescription,omitempty"`

	// Target names the primary object the action was performed on.
	Target string `json:"target,omitempty"`

	RemoteAddress string `json:"remoteAddress,omitempty"`

	// Context carries source-specific attributes through unmodified
	// (objectItem, associatedItems, changedValues and friends).
	Context map[string]interface{} `json:"context,omitempty"`
}

// RawRecord is the source-shaped intermediate between a fetched page and the
// normalizer. Fetchers copy fields without validating them; the normalizer
// owns id/timestamp validation so a malformed record is a counted skip, not
// a page failure.
type RawRecord struct {
	Source string

	// ID may be empty; the normalizer rejects such records.
	ID string

	// Timestamp is the upstream representation: an RFC3339-like string with
	// numeric zone offset (Jira) or epoch milliseconds (Confluence).
	Timestamp string

	// ActionID is the upstream action code used for classification lookup.
	ActionID string

	ActorID       string
	ActorEmail    string
	Target        string
	RemoteAddress string

	// Attributes is the source-specific passthrough payload.
	Attributes map[string]interface{}
}
