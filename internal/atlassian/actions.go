// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package atlassian

import (
	"context"
	"fmt"
	"strings"
)

// EventActions retrieves one page of the organization event-actions catalog.
// A non-empty cursor continues from the links.next URL of a previous page;
// an empty cursor fetches the first page. The returned next cursor is empty
// on the last page.
func (c *Client) EventActions(ctx context.Context, cursor string) (*EventActionsResponse, string, error) {
	reqURL := fmt.Sprintf("%s/admin/v1/orgs/%s/event-actions", c.baseURL, c.orgID)
	if cursor != "" {
		reqURL = c.resolveCursor(cursor)
	}

	var page EventActionsResponse
	if err := c.getJSON(ctx, reqURL, &page); err != nil {
		return nil, "", fmt.Errorf("event actions: %w", err)
	}

	return &page, page.Links.Next, nil
}

// resolveCursor turns a links.next value into an absolute request URL. The
// API returns absolute URLs today but older gateway versions returned
// host-relative paths.
func (c *Client) resolveCursor(cursor string) string {
	if strings.HasPrefix(cursor, "http://") || strings.HasPrefix(cursor, "https://") {
		return cursor
	}
	return c.baseURL + "/" + strings.TrimPrefix(cursor, "/")
}
