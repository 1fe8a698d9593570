// Package testkit provides shared helpers for feedcheck tests: feed fixture
// builders, multipart upload requests, and issue assertions.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedcheck/pkg/feed"
	"feedcheck/pkg/validate"
)

// ValidProduct returns a record value map that passes general-profile
// validation with zero errors. Override fields as needed per test.
func ValidProduct(overrides map[string]string) map[string]string {
	values := map[string]string{
		"id":           "SKU-1",
		"title":        "Mens Pique Polo Shirt",
		"description":  "Made from 100% organic cotton.",
		"link":         "https://www.example.com/polo",
		"image_link":   "https://www.example.com/polo.jpg",
		"availability": "in_stock",
		"price":        "15.00 USD",
		"gtin":         "3234567890126",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return values
}

// Records builds feed records with sequential row indexes starting at 2,
// matching the parser contract (row 1 is the CSV header).
func Records(valueMaps ...map[string]string) []feed.Record {
	records := make([]feed.Record, len(valueMaps))
	for i, values := range valueMaps {
		records[i] = feed.Record{Row: 2 + i, Values: values}
	}
	return records
}

// CSVFeed renders rows into CSV bytes. The header is the union of keys from
// the first row, in iteration-stable order via the columns argument.
func CSVFeed(columns []string, rows ...map[string]string) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(columns, ","))
	buf.WriteString("\n")
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col]
		}
		buf.WriteString(strings.Join(cells, ","))
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// JSONFeed renders rows as a JSON items document.
func JSONFeed(t *testing.T, rows ...map[string]string) []byte {
	t.Helper()
	items := make([]map[string]string, len(rows))
	copy(items, rows)
	data, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		t.Fatalf("failed to marshal JSON feed: %v", err)
	}
	return data
}

// UploadRequest builds a multipart POST with a file field plus extra form
// values (profile, delimiter, encoding).
func UploadRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// FindIssues returns the issues matching a field and severity.
func FindIssues(issues []validate.Issue, field string, severity validate.Severity) []validate.Issue {
	var matched []validate.Issue
	for i := range issues {
		if issues[i].Field == field && issues[i].Severity == severity {
			matched = append(matched, issues[i])
		}
	}
	return matched
}

// AssertHasIssue fails the test unless exactly one issue matches the field
// and severity, and returns it.
func AssertHasIssue(t *testing.T, issues []validate.Issue, field string, severity validate.Severity) validate.Issue {
	t.Helper()
	matched := FindIssues(issues, field, severity)
	if len(matched) != 1 {
		t.Fatalf("expected exactly one %s issue on %q, got %d\n%s",
			severity, field, len(matched), dumpIssues(issues))
	}
	return matched[0]
}

// AssertNoIssue fails the test if any issue matches the field and severity.
func AssertNoIssue(t *testing.T, issues []validate.Issue, field string, severity validate.Severity) {
	t.Helper()
	if matched := FindIssues(issues, field, severity); len(matched) != 0 {
		t.Fatalf("expected no %s issue on %q, got %d\n%s",
			severity, field, len(matched), dumpIssues(issues))
	}
}

func dumpIssues(issues []validate.Issue) string {
	var sb strings.Builder
	for i := range issues {
		issue := &issues[i]
		sb.WriteString(fmt.Sprintf("  row %d %s %s: %s\n",
			issue.RowIndex, issue.Severity, issue.Field, issue.Message))
	}
	return sb.String()
}
