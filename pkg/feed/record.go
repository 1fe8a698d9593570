// Package feed parses uploaded product feeds (CSV or JSON) into records.
package feed

import (
	"errors"
	"strings"
)

// ErrMalformedFeed marks an upload that cannot be parsed at all. Handlers
// surface it as HTTP 400; per-row problems are validation issues, not errors.
var ErrMalformedFeed = errors.New("malformed feed")

// Format of an uploaded feed.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Record is one parsed feed row: attribute name to raw string value, plus a
// 1-based row index. CSV data rows start at 2 (the header is row 1); JSON
// items are numbered the same way so issue rows mean the same thing in both
// formats. Ephemeral, owned by the validation pass that created it.
type Record struct {
	Row    int
	Values map[string]string
}

// Get returns the trimmed value for an attribute, or "" when absent.
func (r *Record) Get(name string) string {
	return strings.TrimSpace(r.Values[name])
}

// Has reports whether the attribute has a non-empty value.
func (r *Record) Has(name string) bool {
	return r.Get(name) != ""
}

// firstDataRow is the row index of the first record. Row 1 is the CSV header.
const firstDataRow = 2
