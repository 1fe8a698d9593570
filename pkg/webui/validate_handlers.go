package webui

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"feedcheck/pkg/feed"
	"feedcheck/pkg/persistence"
	"feedcheck/pkg/validate"
)

// ValidateResponse is the JSON body returned by all validation endpoints.
type ValidateResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Profile string           `json:"profile"`
	Issues  []validate.Issue `json:"issues"`
	Summary validate.Summary `json:"summary"`
}

// handleValidateCSV implements POST /api/validate-csv.
func (s *Server) handleValidateCSV(w http.ResponseWriter, r *http.Request) {
	s.processUpload(w, r, feed.FormatCSV)
}

// handleValidateJSON implements POST /api/validate-json.
func (s *Server) handleValidateJSON(w http.ResponseWriter, r *http.Request) {
	s.processUpload(w, r, feed.FormatJSON)
}

// handleValidateFile implements POST /validate/file - the unified endpoint.
// The feed format is inferred from the uploaded filename, falling back to
// content sniffing.
func (s *Server) handleValidateFile(w http.ResponseWriter, r *http.Request) {
	s.processUpload(w, r, "")
}

// processUpload runs the full parse-then-validate pass for one multipart
// upload: fields `file`, `profile`, and (CSV only) optional `delimiter` and
// `encoding`. An empty format means infer from the upload.
func (s *Server) processUpload(w http.ResponseWriter, r *http.Request, format feed.Format) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.limits.MaxUploadBytes); err != nil {
		s.logger.Warn("Failed to parse multipart form: %v", err)
		s.writeError(w, http.StatusBadRequest, "invalid multipart form or upload too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			s.logger.Warn("Failed to close uploaded file: %v", cerr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("Failed to read uploaded file: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	profile := s.catalog.Normalize(r.FormValue("profile"))
	if format == "" {
		format = inferFormat(header.Filename, content)
	}

	started := time.Now()
	records, err := s.parseFeed(content, format, r)
	if err != nil {
		if errors.Is(err, feed.ErrMalformedFeed) {
			s.recorder.ObserveRejectedUpload(profile, string(format))
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Feed parse failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to parse feed")
		return
	}

	report, err := s.validator.EvaluateBatch(r.Context(), records, profile)
	if err != nil {
		s.logger.Error("Validation failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}

	s.recorder.ObserveValidation(report.Profile, string(format), report, time.Since(started))
	runID := s.storeRun(header.Filename, string(format), report)

	s.logger.Info("Validated %s (%s, profile %s): %d rows, %d errors, %d warnings, %d opportunities",
		header.Filename, format, report.Profile, report.Summary.Rows,
		report.Summary.ErrorCount, report.Summary.WarningCount, report.Summary.OpportunityCount)

	s.writeJSON(w, http.StatusOK, ValidateResponse{
		RunID:   runID,
		Profile: report.Profile,
		Issues:  report.Issues,
		Summary: report.Summary,
	})
}

// parseFeed dispatches to the format-specific parser.
func (s *Server) parseFeed(content []byte, format feed.Format, r *http.Request) ([]feed.Record, error) {
	switch format {
	case feed.FormatJSON:
		return feed.ParseJSON(content, feed.JSONOptions{MaxRows: s.limits.MaxRows})
	default:
		return feed.ParseCSV(content, feed.CSVOptions{
			Delimiter: parseDelimiter(r.FormValue("delimiter")),
			Encoding:  r.FormValue("encoding"),
			MaxRows:   s.limits.MaxRows,
		})
	}
}

// storeRun persists the report to run history. History is best-effort: a
// storage failure is logged, never surfaced to the upload response.
func (s *Server) storeRun(filename, format string, report *validate.Report) string {
	if !persistence.IsInitialized() {
		return ""
	}

	issuesJSON, err := json.Marshal(report.Issues)
	if err != nil {
		s.logger.Error("Failed to marshal issues for run history: %v", err)
		return ""
	}

	run := &persistence.Run{
		ID:               persistence.NewRunID(),
		CreatedAt:        time.Now().UTC(),
		Filename:         filename,
		Format:           format,
		Profile:          report.Profile,
		Rows:             report.Summary.Rows,
		ErrorCount:       report.Summary.ErrorCount,
		WarningCount:     report.Summary.WarningCount,
		OpportunityCount: report.Summary.OpportunityCount,
		IssuesJSON:       string(issuesJSON),
	}

	ops := persistence.Ops()
	if err := ops.InsertRun(run); err != nil {
		s.logger.Error("Failed to store run: %v", err)
		return ""
	}
	if _, err := ops.PruneRuns(s.retention); err != nil {
		s.logger.Warn("Failed to prune run history: %v", err)
	}
	return run.ID
}

// inferFormat guesses the feed format from the filename, then the content.
func inferFormat(filename string, content []byte) feed.Format {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		return feed.FormatJSON
	}
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return feed.FormatCSV
	}
	for _, b := range content {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return feed.FormatJSON
		default:
			return feed.FormatCSV
		}
	}
	return feed.FormatCSV
}

// parseDelimiter maps the delimiter form value to a rune; 0 means sniff.
func parseDelimiter(value string) rune {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return 0
	case "tab", "\\t":
		return '\t'
	default:
		return []rune(value)[0]
	}
}
