package webui

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"feedcheck/pkg/persistence"
	"feedcheck/pkg/validate"
)

// handleRuns implements GET /api/runs - run history metadata, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !persistence.IsInitialized() {
		s.writeError(w, http.StatusServiceUnavailable, "run history not available")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	runs, err := persistence.Ops().ListRuns(limit)
	if err != nil {
		s.logger.Error("Failed to list runs: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// handleRun routes /api/runs/{id} and /api/runs/{id}/export.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !persistence.IsInitialized() {
		s.writeError(w, http.StatusServiceUnavailable, "run history not available")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID required")
		return
	}

	if id, found := strings.CutSuffix(path, "/export"); found {
		s.handleRunExport(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleRunGet(w, path)
	case http.MethodDelete:
		s.handleRunDelete(w, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunGet implements GET /api/runs/{id} - one stored run with issues.
func (s *Server) handleRunGet(w http.ResponseWriter, id string) {
	run, err := persistence.Ops().GetRun(id)
	if err != nil {
		if errors.Is(err, persistence.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("Failed to get run %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	issues, err := decodeIssues(run.IssuesJSON)
	if err != nil {
		s.logger.Error("Failed to decode stored issues for run %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "corrupt run record")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":         run.ID,
		"created_at": run.CreatedAt,
		"filename":   run.Filename,
		"format":     run.Format,
		"profile":    run.Profile,
		"issues":     issues,
		"summary":    validate.Summarize(issues, run.Rows),
	})
}

// handleRunDelete implements DELETE /api/runs/{id}.
func (s *Server) handleRunDelete(w http.ResponseWriter, id string) {
	if err := persistence.Ops().DeleteRun(id); err != nil {
		if errors.Is(err, persistence.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("Failed to delete run %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleRunExport implements GET /api/runs/{id}/export?format=csv|json -
// downloads a stored run's issue list.
func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	run, err := persistence.Ops().GetRun(id)
	if err != nil {
		if errors.Is(err, persistence.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("Failed to get run %s for export: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	issues, err := decodeIssues(run.IssuesJSON)
	if err != nil {
		s.logger.Error("Failed to decode stored issues for run %s: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "corrupt run record")
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "csv":
		s.exportCSV(w, run.ID, issues)
	case "json":
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-issues.json", run.ID))
		s.writeJSON(w, http.StatusOK, issues)
	default:
		s.writeError(w, http.StatusBadRequest, "format must be csv or json")
	}
}

// exportCSV writes the issue list as a CSV download.
func (s *Server) exportCSV(w http.ResponseWriter, runID string, issues []validate.Issue) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-issues.csv", runID))

	writer := csv.NewWriter(w)
	header := []string{"row_index", "item_id", "field", "severity", "message", "sample_value"}
	if err := writer.Write(header); err != nil {
		s.logger.Error("Failed to write CSV export header: %v", err)
		return
	}
	for i := range issues {
		issue := &issues[i]
		record := []string{
			strconv.Itoa(issue.RowIndex),
			issue.ItemID,
			issue.Field,
			string(issue.Severity),
			issue.Message,
			issue.SampleValue,
		}
		if err := writer.Write(record); err != nil {
			s.logger.Error("Failed to write CSV export row: %v", err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.logger.Error("Failed to flush CSV export: %v", err)
	}
}

func decodeIssues(issuesJSON string) ([]validate.Issue, error) {
	var issues []validate.Issue
	if err := json.Unmarshal([]byte(issuesJSON), &issues); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
	}
	return issues, nil
}
