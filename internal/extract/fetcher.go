// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package extract

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/tomtom215/atlasaudit/internal/atlassian"
	"github.com/tomtom215/atlasaudit/internal/models"
)

// PageCursor is the opaque continuation token for one window's pagination.
// Cursors are never persisted: a fresh run always restarts from the window
// boundaries.
type PageCursor struct {
	offset int
}

// Fetcher retrieves all upstream records for a window, one page at a time.
// A nil cursor requests the first page; a nil returned cursor signals
// end-of-window. Records arrive source-shaped and unvalidated.
type Fetcher interface {
	FetchPage(ctx context.Context, window Window, cursor *PageCursor) ([]models.RawRecord, *PageCursor, error)
}

// NewFetcher creates the fetcher for a source id.
func NewFetcher(sourceID string, api atlassian.API, pageSize int) (Fetcher, error) {
	switch sourceID {
	case "jira":
		return &jiraFetcher{api: api, pageSize: pageSize}, nil
	case "confluence":
		return &confluenceFetcher{api: api, pageSize: pageSize}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", sourceID)
	}
}

// jiraFetcher pages the Jira auditing records endpoint with offset/limit
// pagination and server-side from/to bounds.
type jiraFetcher struct {
	api      atlassian.API
	pageSize int
}

func (f *jiraFetcher) FetchPage(ctx context.Context, window Window, cursor *PageCursor) ([]models.RawRecord, *PageCursor, error) {
	offset := 0
	if cursor != nil {
		offset = cursor.offset
	}

	resp, err := f.api.JiraAuditRecords(ctx, atlassian.JiraQuery{
		Offset: offset,
		Limit:  f.pageSize,
		From:   window.Start,
		To:     window.End,
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]models.RawRecord, 0, len(resp.Records))
	for i := range resp.Records {
		records = append(records, jiraRawRecord(&resp.Records[i]))
	}

	var next *PageCursor
	if len(resp.Records) > 0 && offset+len(resp.Records) < resp.Total {
		next = &PageCursor{offset: offset + len(resp.Records)}
	}
	return records, next, nil
}

func jiraRawRecord(r *atlassian.JiraAuditRecord) models.RawRecord {
	actorID := r.AuthorAccountID
	if actorID == "" {
		actorID = r.AuthorKey
	}

	var target string
	if r.ObjectItem != nil {
		target = r.ObjectItem.Name
	}

	attrs := make(map[string]interface{})
	if r.Category != "" {
		attrs["category"] = r.Category
	}
	if r.EventSource != "" {
		attrs["eventSource"] = r.EventSource
	}
	if r.ObjectItem != nil {
		attrs["objectItem"] = r.ObjectItem
	}
	if len(r.AssociatedItems) > 0 {
		attrs["associatedItems"] = r.AssociatedItems
	}
	if len(r.ChangedValues) > 0 {
		attrs["changedValues"] = r.ChangedValues
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	return models.RawRecord{
		Source:        "jira",
		ID:            r.ID.String(),
		Timestamp:     r.Created,
		ActionID:      r.Summary,
		ActorID:       actorID,
		Target:        target,
		RemoteAddress: r.RemoteAddress,
		Attributes:    attrs,
	}
}

// confluenceFetcher pages the Confluence audit endpoint with start/limit
// pagination and epoch-millisecond date bounds.
type confluenceFetcher struct {
	api      atlassian.API
	pageSize int
}

func (f *confluenceFetcher) FetchPage(ctx context.Context, window Window, cursor *PageCursor) ([]models.RawRecord, *PageCursor, error) {
	start := 0
	if cursor != nil {
		start = cursor.offset
	}

	resp, err := f.api.ConfluenceAuditRecords(ctx, atlassian.ConfluenceQuery{
		Start:     start,
		Limit:     f.pageSize,
		StartDate: window.Start,
		EndDate:   window.End,
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]models.RawRecord, 0, len(resp.Results))
	for i := range resp.Results {
		records = append(records, confluenceRawRecord(&resp.Results[i]))
	}

	// Confluence reports no total; a full page means there may be more.
	var next *PageCursor
	if len(resp.Results) >= f.pageSize && f.pageSize > 0 {
		next = &PageCursor{offset: start + len(resp.Results)}
	}
	return records, next, nil
}

func confluenceRawRecord(r *atlassian.ConfluenceAuditRecord) models.RawRecord {
	var actorID, actorName string
	if r.Author != nil {
		actorID = r.Author.AccountID
		actorName = r.Author.DisplayName
	}

	var target string
	if r.AffectedObject != nil {
		target = r.AffectedObject.Name
	}

	attrs := make(map[string]interface{})
	if r.Category != "" {
		attrs["category"] = r.Category
	}
	if actorName != "" {
		attrs["authorDisplayName"] = actorName
	}
	if r.AffectedObject != nil {
		attrs["affectedObject"] = r.AffectedObject
	}
	if len(r.AssociatedObjects) > 0 {
		attrs["associatedObjects"] = r.AssociatedObjects
	}
	if len(r.ChangedValues) > 0 {
		attrs["changedValues"] = r.ChangedValues
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	return models.RawRecord{
		Source:        "confluence",
		ID:            confluenceRecordID(r),
		Timestamp:     r.CreationDate.String(),
		ActionID:      r.Summary,
		ActorID:       actorID,
		Target:        target,
		RemoteAddress: r.RemoteAddress,
		Attributes:    attrs,
	}
}

// confluenceRecordID derives a stable identifier for a Confluence record.
// Confluence assigns no record id, so identity is hashed from the fields
// that distinguish a record; the hash is deterministic across runs, which
// downstream deduplication depends on.
func confluenceRecordID(r *atlassian.ConfluenceAuditRecord) string {
	accountID := ""
	if r.Author != nil {
		accountID = r.Author.AccountID
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(r.CreationDate.String()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(accountID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(r.Summary))
	return fmt.Sprintf("%016x", h.Sum64())
}
