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

// jiraTimestampLayout is the timestamp format Jira uses in audit records and
// accepts in from/to query parameters: numeric zone offset, no colon.
const jiraTimestampLayout = "2006-01-02T15:04:05.000-0700"

// JiraQuery bounds one page of the Jira auditing records endpoint.
type JiraQuery struct {
	Offset int
	Limit  int

	// From and To bound the record creation time server-side. Zero values
	// omit the bound.
	From time.Time
	To   time.Time
}

// JiraAuditRecords retrieves one page of Jira audit records for the
// configured cloud id. Records arrive newest first.
func (c *Client) JiraAuditRecords(ctx context.Context, q JiraQuery) (*JiraAuditResponse, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(jiraTimestampLayout))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(jiraTimestampLayout))
	}

	reqURL := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/auditing/record?%s", c.baseURL, c.cloudID, params.Encode())

	var page JiraAuditResponse
	if err := c.getJSON(ctx, reqURL, &page); err != nil {
		return nil, fmt.Errorf("jira audit records: %w", err)
	}

	return &page, nil
}
