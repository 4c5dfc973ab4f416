// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

/*
types.go - Upstream Wire Types

Wire types for the upstream audit APIs: the Jira auditing records endpoint,
the Confluence audit endpoint, and the organization event-actions listing
used by rebuild-actions.
*/

//nolint:staticcheck // File documentation, not package doc
package atlassian

import (
	"github.com/goccy/go-json"
)

// JiraAuditResponse is one page of Jira audit records.
// Records arrive ordered by created time, newest first.
type JiraAuditResponse struct {
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
	Total   int               `json:"total"`
	Records []JiraAuditRecord `json:"records"`
}

// JiraAuditRecord is a single Jira audit record.
// Timestamps use a numeric zone offset, e.g. "2025-11-11T15:18:38.471+0000".
type JiraAuditRecord struct {
	ID              json.Number        `json:"id"`
	Summary         string             `json:"summary"`
	Created         string             `json:"created"`
	Category        string             `json:"category"`
	EventSource     string             `json:"eventSource"`
	AuthorKey       string             `json:"authorKey"`
	AuthorAccountID string             `json:"authorAccountId"`
	RemoteAddress   string             `json:"remoteAddress"`
	ObjectItem      *JiraAuditObject   `json:"objectItem,omitempty"`
	AssociatedItems []JiraAuditObject  `json:"associatedItems,omitempty"`
	ChangedValues   []JiraChangedValue `json:"changedValues,omitempty"`
}

// JiraAuditObject describes the object an audit record refers to.
type JiraAuditObject struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	TypeName   string `json:"typeName,omitempty"`
	ParentID   string `json:"parentId,omitempty"`
	ParentName string `json:"parentName,omitempty"`
}

// JiraChangedValue is a single field change within an audit record.
type JiraChangedValue struct {
	FieldName   string `json:"fieldName,omitempty"`
	ChangedFrom string `json:"changedFrom,omitempty"`
	ChangedTo   string `json:"changedTo,omitempty"`
}

// ConfluenceAuditResponse is one page of Confluence audit records.
// Records arrive ordered by creation date, newest first.
type ConfluenceAuditResponse struct {
	Results []ConfluenceAuditRecord `json:"results"`
	Start   int                     `json:"start"`
	Limit   int                     `json:"limit"`
	Size    int                     `json:"size"`
}

// ConfluenceAuditRecord is a single Confluence audit record. Confluence
// assigns no record id; identity is derived from the record content.
// CreationDate is epoch milliseconds.
type ConfluenceAuditRecord struct {
	CreationDate      json.Number              `json:"creationDate"`
	Summary           string                   `json:"summary"`
	Category          string                   `json:"category"`
	RemoteAddress     string                   `json:"remoteAddress"`
	Author            *ConfluenceAuthor        `json:"author,omitempty"`
	AffectedObject    *ConfluenceObject        `json:"affectedObject,omitempty"`
	AssociatedObjects []ConfluenceObject       `json:"associatedObjects,omitempty"`
	ChangedValues     []ConfluenceChangedValue `json:"changedValues,omitempty"`
}

// ConfluenceAuthor identifies who performed the audited action.
type ConfluenceAuthor struct {
	Type        string `json:"type,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PublicName  string `json:"publicName,omitempty"`
}

// ConfluenceObject describes an object referenced by an audit record.
type ConfluenceObject struct {
	Name       string `json:"name,omitempty"`
	ObjectType string `json:"objectType,omitempty"`
}

// ConfluenceChangedValue is a single field change within an audit record.
type ConfluenceChangedValue struct {
	Name     string `json:"name,omitempty"`
	OldValue string `json:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty"`
}

// EventActionsResponse is one page of the organization event-actions listing.
type EventActionsResponse struct {
	Data  []EventAction `json:"data"`
	Links PageLinks     `json:"links"`
}

// EventAction is a known action identifier with display metadata.
type EventAction struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Attributes EventActionAttributes `json:"attributes"`
}

// EventActionAttributes carries the classification metadata for one action.
type EventActionAttributes struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
}

// PageLinks holds the opaque continuation link for cursor-paged endpoints.
// An empty Next means the last page.
type PageLinks struct {
	Next string `json:"next,omitempty"`
}
