// Package webui provides the HTTP API and embedded browser UI for the feed
// validation service.
package webui

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"feedcheck/pkg/catalog"
	"feedcheck/pkg/config"
	"feedcheck/pkg/logx"
	"feedcheck/pkg/metrics"
	"feedcheck/pkg/validate"
	"feedcheck/pkg/version"
)

//go:embed web/static
var staticFS embed.FS

// defaultAuthUsername is used when auth is enabled but no username is configured.
const defaultAuthUsername = "feedcheck"

// Server is the feedcheck HTTP server.
type Server struct {
	catalog   *catalog.Catalog
	validator *validate.Validator
	recorder  *metrics.Recorder
	logger    *logx.Logger
	limits    config.LimitsConfig
	auth      config.AuthConfig
	retention int
}

// NewServer creates the HTTP server over a loaded catalog. Limits and auth
// settings are read from the config singleton once; the catalog and the
// derived validator are the only state shared across requests.
func NewServer(cat *catalog.Catalog, recorder *metrics.Recorder) (*Server, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &Server{
		catalog:   cat,
		validator: validate.New(cat),
		recorder:  recorder,
		logger:    logx.NewLogger("webui"),
		limits:    cfg.Limits,
		auth:      cfg.Auth,
		retention: cfg.RunRetention,
	}, nil
}

// requireAuth wraps a handler with HTTP Basic Authentication when a password
// hash is configured. With no hash configured the handler is served as-is.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.auth.PasswordHash == "" {
		return next
	}

	expectedUsername := s.auth.Username
	if expectedUsername == "" {
		expectedUsername = defaultAuthUsername
	}

	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="feedcheck"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(expectedUsername)) == 1
		passwordErr := bcrypt.CompareHashAndPassword([]byte(s.auth.PasswordHash), []byte(password))
		if !usernameMatch || passwordErr != nil {
			s.logger.Warn("Failed authentication attempt from %s (username: %s)", r.RemoteAddr, username)
			w.Header().Set("WWW-Authenticate", `Basic realm="feedcheck"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// RegisterRoutes sets up HTTP routes for the API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Embedded single-page UI.
	staticSubFS, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		// Cannot happen: the path is embedded at compile time.
		panic(fmt.Sprintf("failed to access embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(staticSubFS)))

	// Rulebook and validation endpoints.
	mux.HandleFunc("/api/spec", s.requireAuth(s.handleSpec))
	mux.HandleFunc("/api/profiles", s.requireAuth(s.handleProfiles))
	mux.HandleFunc("/api/validate-csv", s.requireAuth(s.handleValidateCSV))
	mux.HandleFunc("/api/validate-json", s.requireAuth(s.handleValidateJSON))
	mux.HandleFunc("/validate/file", s.requireAuth(s.handleValidateFile))

	// Run history.
	mux.HandleFunc("/api/runs", s.requireAuth(s.handleRuns))
	mux.HandleFunc("/api/runs/", s.requireAuth(s.handleRun))

	// Operational endpoints.
	mux.HandleFunc("/api/logs", s.requireAuth(s.handleLogs))
	mux.HandleFunc("/api/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

// handleHealth implements GET /api/healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]string{
		"status":  "ok",
		"version": version.Version,
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleLogs implements GET /api/logs - recent in-memory log entries.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	component := query.Get("component")
	sinceStr := query.Get("since")

	var since time.Time
	if sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since parameter (use RFC3339)")
			return
		}
		since = parsed
	}

	logs := logx.GetRecentLogEntries(component, since)
	s.writeJSON(w, http.StatusOK, logs)
	s.logger.Debug("Served %d log entries (component=%s, since=%s)", len(logs), component, sinceStr)
}

// writeJSON sends a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

// writeError sends a JSON error body: {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// StartServer starts the HTTP server and shuts it down gracefully when the
// context is cancelled.
func (s *Server) StartServer(ctx context.Context, host string, port int) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting feedcheck server on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Parent context is cancelled; use a fresh context for shutdown.
	s.logger.Info("Shutting down feedcheck server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	//nolint:contextcheck // Parent context is cancelled; shutdown needs its own deadline
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
