// Package validate evaluates feed records against the attribute rulebook and
// emits categorized issues.
package validate

// Severity classifies an issue.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityOpportunity Severity = "opportunity"
)

// Issue is one finding against one record. Immutable once emitted.
// This is the single canonical shape: row_index and sample_value, never the
// row/value aliases some older feed tools used.
type Issue struct {
	RowIndex    int      `json:"row_index"`
	ItemID      string   `json:"item_id,omitempty"`
	ItemTitle   string   `json:"item_title,omitempty"`
	Field       string   `json:"field"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	SampleValue string   `json:"sample_value,omitempty"`
}

// Summary aggregates a validation pass: total issues per severity plus the
// number of records carrying at least one issue of each severity. Derived
// from the issue list, never stored independently.
type Summary struct {
	Rows                  int `json:"rows"`
	ErrorCount            int `json:"errors"`
	WarningCount          int `json:"warnings"`
	OpportunityCount      int `json:"opportunities"`
	RowsWithErrors        int `json:"rows_with_errors"`
	RowsWithWarnings      int `json:"rows_with_warnings"`
	RowsWithOpportunities int `json:"rows_with_opportunities"`
}

// Report is the full result of validating one uploaded feed.
type Report struct {
	Profile string  `json:"profile"`
	Issues  []Issue `json:"issues"`
	Summary Summary `json:"summary"`
}

// Summarize derives a Summary from an issue list.
func Summarize(issues []Issue, rows int) Summary {
	summary := Summary{Rows: rows}

	type rowSeverity struct {
		row      int
		severity Severity
	}
	seen := make(map[rowSeverity]bool)

	for i := range issues {
		issue := &issues[i]
		switch issue.Severity {
		case SeverityError:
			summary.ErrorCount++
		case SeverityWarning:
			summary.WarningCount++
		case SeverityOpportunity:
			summary.OpportunityCount++
		}

		key := rowSeverity{issue.RowIndex, issue.Severity}
		if seen[key] {
			continue
		}
		seen[key] = true
		switch issue.Severity {
		case SeverityError:
			summary.RowsWithErrors++
		case SeverityWarning:
			summary.RowsWithWarnings++
		case SeverityOpportunity:
			summary.RowsWithOpportunities++
		}
	}
	return summary
}
