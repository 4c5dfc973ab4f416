// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package atlassian

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/atlasaudit/internal/config"
)

func testClientConfig(serverURL string) *config.AtlassianConfig {
	return &config.AtlassianConfig{
		BaseURL:           serverURL,
		CloudID:           "cloud-123",
		OrgID:             "org-456",
		Email:             "admin@example.com",
		APIKey:            "test-key",
		Timeout:           5 * time.Second,
		MaxRetries:        3,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerSecond: 1000,
	}
}

// TestReadBodyForError tests the utility function that reads response bodies
// for error reporting.
func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    io.Reader
		expected string
	}{
		{
			name:     "normal body content",
			input:    strings.NewReader("error message body"),
			expected: "error message body",
		},
		{
			name:     "empty body",
			input:    strings.NewReader(""),
			expected: "",
		},
		{
			name:     "JSON error response",
			input:    strings.NewReader(`{"error": "something went wrong"}`),
			expected: `{"error": "something went wrong"}`,
		},
		{
			name:     "failing reader",
			input:    &failingReader{},
			expected: "(failed to read response body)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := readBodyForError(tt.input)
			if string(result) != tt.expected {
				t.Errorf("readBodyForError() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}

// failingReader is a reader that always fails
type failingReader struct{}

func (f *failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("simulated read failure")
}

func TestReadBodyForErrorTruncation(t *testing.T) {
	t.Parallel()

	result := readBodyForError(strings.NewReader(strings.Repeat("x", maxErrorBodySize+500)))
	if !strings.HasSuffix(string(result), "... (truncated)") {
		t.Errorf("expected truncation marker, got tail %q", string(result[len(result)-30:]))
	}
}

// TestDoRequestWithRetry tests the retry and backoff behavior.
func TestDoRequestWithRetry(t *testing.T) {
	t.Run("successful request on first try", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("success"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		resp, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRetry() error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("rate limit with retry success", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("success after retry"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))
		var retries atomic.Int32
		client.SetRetryHook(func() { retries.Add(1) })

		resp, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRetry() error = %v", err)
		}
		defer resp.Body.Close()

		if got := attempts.Load(); got != 3 {
			t.Errorf("attempts = %d, want 3", got)
		}
		if got := retries.Load(); got != 2 {
			t.Errorf("retry hook calls = %d, want 2", got)
		}
	})

	t.Run("rate limit honors Retry-After", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if attempts.Add(1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		start := time.Now()
		resp, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRetry() error = %v", err)
		}
		resp.Body.Close()

		if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
			t.Errorf("request completed in %v, want >= ~1s per Retry-After", elapsed)
		}
	})

	t.Run("rate limit exhausts retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		_, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("error = %v, want ErrRateLimited", err)
		}
	})

	t.Run("unauthorized fails immediately without retry", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		_, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if !errors.Is(err, ErrAuth) {
			t.Errorf("error = %v, want ErrAuth", err)
		}
		if got := attempts.Load(); got != 1 {
			t.Errorf("attempts = %d, want 1 (no retry on auth failure)", got)
		}
	})

	t.Run("forbidden fails immediately without retry", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		_, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if !errors.Is(err, ErrAuth) {
			t.Errorf("error = %v, want ErrAuth", err)
		}
		if got := attempts.Load(); got != 1 {
			t.Errorf("attempts = %d, want 1 (no retry on auth failure)", got)
		}
	})

	t.Run("server error retries then exhausts", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		_, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if !errors.Is(err, ErrTransient) {
			t.Errorf("error = %v, want ErrTransient", err)
		}
		if got := attempts.Load(); got != 4 {
			t.Errorf("attempts = %d, want 4 (initial + 3 retries)", got)
		}
	})

	t.Run("context cancellation aborts backoff", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := testClientConfig(server.URL)
		cfg.RetryBaseDelay = 10 * time.Second
		client := NewClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.doRequestWithRetry(ctx, server.URL+"/test")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want context.DeadlineExceeded", err)
		}
	})

	t.Run("sends basic auth and accept header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "admin@example.com" || pass != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.Header.Get("Accept") != "application/json" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		resp, err := client.doRequestWithRetry(context.Background(), server.URL+"/test")
		if err != nil {
			t.Fatalf("doRequestWithRetry() error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
	})
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	client := &Client{retryBaseDelay: 2 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
	}

	for _, tt := range tests {
		if got := client.backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestGetJSON(t *testing.T) {
	t.Run("malformed body returns ErrMalformedPage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{not json"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		var out map[string]interface{}
		err := client.getJSON(context.Background(), server.URL+"/test", &out)
		if !errors.Is(err, ErrMalformedPage) {
			t.Errorf("error = %v, want ErrMalformedPage", err)
		}
	})

	t.Run("non-200 status includes body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such endpoint"))
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		var out map[string]interface{}
		err := client.getJSON(context.Background(), server.URL+"/test", &out)
		if err == nil || !strings.Contains(err.Error(), "no such endpoint") {
			t.Errorf("error = %v, want body in message", err)
		}
	})
}

func TestJiraAuditRecords(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"offset": 0,
			"limit": 100,
			"total": 2,
			"records": [
				{"id": 101, "summary": "User added to group", "created": "2026-08-01T10:00:00.000+0000"},
				{"id": 100, "summary": "Project created", "created": "2026-08-01T09:00:00.000+0000"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	page, err := client.JiraAuditRecords(context.Background(), JiraQuery{
		Offset: 0,
		Limit:  100,
		From:   from,
		To:     to,
	})
	if err != nil {
		t.Fatalf("JiraAuditRecords() error = %v", err)
	}

	if gotPath != "/ex/jira/cloud-123/rest/api/3/auditing/record" {
		t.Errorf("path = %q", gotPath)
	}
	for _, want := range []string{"offset=0", "limit=100", "from=2026-08-01T00%3A00%3A00.000%2B0000", "to=2026-08-02T00%3A00%3A00.000%2B0000"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	if len(page.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(page.Records))
	}
	if page.Records[0].ID.String() != "101" {
		t.Errorf("Records[0].ID = %s, want 101", page.Records[0].ID.String())
	}
	if page.Records[0].Summary != "User added to group" {
		t.Errorf("Records[0].Summary = %q", page.Records[0].Summary)
	}
}

func TestConfluenceAuditRecords(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"results": [
				{"creationDate": 1754042400000, "summary": "Page updated", "author": {"accountId": "abc"}}
			],
			"start": 0,
			"limit": 50,
			"size": 1
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL))

	startDate := time.UnixMilli(1754000000000)
	endDate := time.UnixMilli(1754100000000)
	page, err := client.ConfluenceAuditRecords(context.Background(), ConfluenceQuery{
		Start:     0,
		Limit:     50,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		t.Fatalf("ConfluenceAuditRecords() error = %v", err)
	}

	if gotPath != "/ex/confluence/cloud-123/rest/api/audit" {
		t.Errorf("path = %q", gotPath)
	}
	for _, want := range []string{"start=0", "limit=50", "startDate=1754000000000", "endDate=1754100000000"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	if page.Size != 1 {
		t.Errorf("Size = %d, want 1", page.Size)
	}
	if len(page.Results) != 1 || page.Results[0].Summary != "Page updated" {
		t.Errorf("Results = %+v", page.Results)
	}
}

func TestEventActions(t *testing.T) {
	t.Parallel()

	t.Run("first page and cursor following", func(t *testing.T) {
		t.Parallel()

		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			switch {
			case r.URL.Path == "/admin/v1/orgs/org-456/event-actions" && r.URL.RawQuery == "":
				_, _ = w.Write([]byte(`{
					"data": [{"id": "jira_project_created", "type": "event-actions", "attributes": {"id": "jira_project_created", "displayName": "Project created", "group": "jira"}}],
					"links": {"next": "` + server.URL + `/admin/v1/orgs/org-456/event-actions?cursor=page2"}
				}`))
			case r.URL.RawQuery == "cursor=page2":
				_, _ = w.Write([]byte(`{
					"data": [{"id": "confluence_page_updated", "type": "event-actions", "attributes": {"id": "confluence_page_updated", "displayName": "Page updated", "group": "confluence"}}],
					"links": {}
				}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		client := NewClient(testClientConfig(server.URL))

		page, next, err := client.EventActions(context.Background(), "")
		if err != nil {
			t.Fatalf("EventActions() error = %v", err)
		}
		if len(page.Data) != 1 || page.Data[0].ID != "jira_project_created" {
			t.Errorf("first page data = %+v", page.Data)
		}
		if next == "" {
			t.Fatal("expected next cursor on first page")
		}

		page, next, err = client.EventActions(context.Background(), next)
		if err != nil {
			t.Fatalf("EventActions(cursor) error = %v", err)
		}
		if len(page.Data) != 1 || page.Data[0].Attributes.Group != "confluence" {
			t.Errorf("second page data = %+v", page.Data)
		}
		if next != "" {
			t.Errorf("next = %q, want empty on last page", next)
		}
	})

	t.Run("relative cursor resolves against base URL", func(t *testing.T) {
		t.Parallel()

		client := &Client{baseURL: "https://api.atlassian.com"}

		tests := []struct {
			cursor string
			want   string
		}{
			{"https://api.atlassian.com/admin/v1/orgs/x/event-actions?cursor=a", "https://api.atlassian.com/admin/v1/orgs/x/event-actions?cursor=a"},
			{"/admin/v1/orgs/x/event-actions?cursor=a", "https://api.atlassian.com/admin/v1/orgs/x/event-actions?cursor=a"},
			{"admin/v1/orgs/x/event-actions?cursor=a", "https://api.atlassian.com/admin/v1/orgs/x/event-actions?cursor=a"},
		}
		for _, tt := range tests {
			if got := client.resolveCursor(tt.cursor); got != tt.want {
				t.Errorf("resolveCursor(%q) = %q, want %q", tt.cursor, got, tt.want)
			}
		}
	})
}
