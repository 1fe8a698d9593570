package persistence

import (
	"time"

	"github.com/google/uuid"
)

// Run is one stored validation run: the upload metadata, per-severity counts,
// and the serialized issue list.
type Run struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Filename         string    `json:"filename"`
	Format           string    `json:"format"`
	Profile          string    `json:"profile"`
	Rows             int       `json:"rows"`
	ErrorCount       int       `json:"errors"`
	WarningCount     int       `json:"warnings"`
	OpportunityCount int       `json:"opportunities"`
	IssuesJSON       string    `json:"-"` // serialized []validate.Issue
}

// NewRunID generates a unique run identifier.
func NewRunID() string {
	return "run-" + uuid.New().String()
}

// RunListItem is the run metadata returned by list queries: everything but
// the issue payload.
type RunListItem struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Filename         string    `json:"filename"`
	Format           string    `json:"format"`
	Profile          string    `json:"profile"`
	Rows             int       `json:"rows"`
	ErrorCount       int       `json:"errors"`
	WarningCount     int       `json:"warnings"`
	OpportunityCount int       `json:"opportunities"`
}
