// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package atlassian

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ConfluenceQuery bounds one page of the Confluence audit endpoint.
type ConfluenceQuery struct {
	Start int
	Limit int

	// StartDate and EndDate bound the record creation time server-side,
	// sent as epoch milliseconds. Zero values omit the bound.
	StartDate time.Time
	EndDate   time.Time
}

// ConfluenceAuditRecords retrieves one page of Confluence audit records for
// the configured cloud id. Records arrive newest first.
func (c *Client) ConfluenceAuditRecords(ctx context.Context, q ConfluenceQuery) (*ConfluenceAuditResponse, error) {
	params := url.Values{}
	params.Set("start", strconv.Itoa(q.Start))
	params.Set("limit", strconv.Itoa(q.Limit))
	if !q.StartDate.IsZero() {
		params.Set("startDate", strconv.FormatInt(q.StartDate.UnixMilli(), 10))
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", strconv.FormatInt(q.EndDate.UnixMilli(), 10))
	}

	reqURL := fmt.Sprintf("%s/ex/confluence/%s/rest/api/audit?%s", c.baseURL, c.cloudID, params.Encode())

	var page ConfluenceAuditResponse
	if err := c.getJSON(ctx, reqURL, &page); err != nil {
		return nil, fmt.Errorf("confluence audit records: %w", err)
	}

	return &page, nil
}
