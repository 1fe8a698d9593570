package webui

import (
	"net/http"
)

// handleSpec implements GET /api/spec?profile=<name> - the ordered attribute
// specs applicable to the profile. Unknown or absent profiles fall back to
// general rather than failing.
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profile := s.catalog.Normalize(r.URL.Query().Get("profile"))
	specs := s.catalog.Lookup(profile)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"profile":    profile,
		"attributes": specs,
	})
	s.logger.Debug("Served spec for profile %s (%d attributes)", profile, len(specs))
}

// handleProfiles implements GET /api/profiles - the profiles the rulebook covers.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"profiles": s.catalog.Profiles(),
	})
}
