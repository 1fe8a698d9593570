package persistence

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID has no stored row.
var ErrRunNotFound = errors.New("run not found")

// RunStore provides validation run history operations.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore over an open connection.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun stores a completed validation run.
func (s *RunStore) InsertRun(run *Run) error {
	query := `
		INSERT INTO runs (
			id, created_at, filename, format, profile, rows,
			error_count, warning_count, opportunity_count, issues_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.ID, run.CreatedAt, run.Filename, run.Format, run.Profile, run.Rows,
		run.ErrorCount, run.WarningCount, run.OpportunityCount, run.IssuesJSON)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns one run including its issue payload.
func (s *RunStore) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, created_at, filename, format, profile, rows,
		       error_count, warning_count, opportunity_count, issues_json
		FROM runs WHERE id = ?
	`
	run := &Run{}
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.CreatedAt, &run.Filename, &run.Format, &run.Profile, &run.Rows,
		&run.ErrorCount, &run.WarningCount, &run.OpportunityCount, &run.IssuesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns run metadata, newest first, capped at limit.
func (s *RunStore) ListRuns(limit int) ([]RunListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, created_at, filename, format, profile, rows,
		       error_count, warning_count, opportunity_count
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]RunListItem, 0)
	for rows.Next() {
		var item RunListItem
		if err := rows.Scan(
			&item.ID, &item.CreatedAt, &item.Filename, &item.Format, &item.Profile, &item.Rows,
			&item.ErrorCount, &item.WarningCount, &item.OpportunityCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return items, nil
}

// DeleteRun removes one run from history.
func (s *RunStore) DeleteRun(id string) error {
	result, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// PruneRuns deletes all but the newest keep runs. A keep of 0 disables
// pruning.
func (s *RunStore) PruneRuns(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	query := `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`
	result, err := s.db.Exec(query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check prune result: %w", err)
	}
	return pruned, nil
}
