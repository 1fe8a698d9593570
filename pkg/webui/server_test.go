package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"feedcheck/pkg/catalog"
	"feedcheck/pkg/config"
	"feedcheck/pkg/logx"
	"feedcheck/pkg/metrics"
)

// newTestServer builds a Server with default config and a private metrics
// registry.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	config.Reset()
	t.Cleanup(config.Reset)
	if err := config.Load(t.TempDir()); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	server, err := NewServer(cat, metrics.NewRecorderWith(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestHandleHealth_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleSpec(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/spec?profile=apparel", nil)
	rec := httptest.NewRecorder()
	server.handleSpec(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Profile    string                  `json:"profile"`
		Attributes []catalog.AttributeSpec `json:"attributes"`
	}
	decodeBody(t, rec, &body)
	if body.Profile != "apparel" {
		t.Errorf("expected profile apparel, got %q", body.Profile)
	}
	if len(body.Attributes) == 0 {
		t.Fatal("expected attributes in response")
	}

	found := false
	for _, attr := range body.Attributes {
		if attr.Name == "item_group_id" && attr.Importance == catalog.ImportanceRequired {
			found = true
		}
	}
	if !found {
		t.Error("expected item_group_id to be required for apparel")
	}
}

func TestHandleSpec_UnknownProfileFallsBack(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/spec?profile=bogus", nil)
	rec := httptest.NewRecorder()
	server.handleSpec(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Profile string `json:"profile"`
	}
	decodeBody(t, rec, &body)
	if body.Profile != "general" {
		t.Errorf("expected fallback to general, got %q", body.Profile)
	}
}

func TestHandleProfiles(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	rec := httptest.NewRecorder()
	server.handleProfiles(rec, req)

	var body struct {
		Profiles []string `json:"profiles"`
	}
	decodeBody(t, rec, &body)
	expected := []string{"apparel", "general", "local_inventory"}
	if len(body.Profiles) != len(expected) {
		t.Fatalf("expected %d profiles, got %v", len(expected), body.Profiles)
	}
	for i, profile := range expected {
		if body.Profiles[i] != profile {
			t.Errorf("profile %d: expected %q, got %q", i, profile, body.Profiles[i])
		}
	}
}

func TestHandleLogs(t *testing.T) {
	server := newTestServer(t)
	logx.ResetBuffer()
	t.Cleanup(logx.ResetBuffer)

	logx.NewLogger("webui").Info("test entry")

	req := httptest.NewRequest(http.MethodGet, "/api/logs?component=webui", nil)
	rec := httptest.NewRecorder()
	server.handleLogs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []logx.LogEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "test entry" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
}

func TestHandleLogs_InvalidSince(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/logs?since=yesterday", nil)
	rec := httptest.NewRecorder()
	server.handleLogs(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRequireAuth_Disabled(t *testing.T) {
	server := newTestServer(t)

	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/spec", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected passthrough when no password hash set, got %d", rec.Code)
	}
}

func TestRequireAuth_Enabled(t *testing.T) {
	server := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	server.auth = config.AuthConfig{Username: "admin", PasswordHash: string(hash)}

	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		username string
		password string
		want     int
	}{
		{"valid credentials", "admin", "secret", http.StatusOK},
		{"wrong password", "admin", "wrong", http.StatusUnauthorized},
		{"wrong username", "guest", "secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/spec", nil)
			req.SetBasicAuth(tt.username, tt.password)
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	// No credentials at all.
	req := httptest.NewRequest(http.MethodGet, "/api/spec", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
}

func TestRegisterRoutes_ServesHealthUnauthenticated(t *testing.T) {
	server := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	server.auth = config.AuthConfig{PasswordHash: string(hash)}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health endpoint should not require auth, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/spec", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("spec endpoint should require auth, got %d", rec.Code)
	}
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	server := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.StartServer(ctx, "127.0.0.1", 0)
	}()

	// Give the listener a moment, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
