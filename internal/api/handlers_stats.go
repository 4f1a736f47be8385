package api

import "net/http"

func (s *Server) handleRefreshStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "refresh stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":    s.sessions.Len(),
		"queue_depth": s.sessions.QueueDepth(),
		"stats":       s.stats.Snapshot(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handlePutSettings replaces the user settings and applies them to every
// session.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := s.settings.Get()
	if err := decodeJSON(r, &next); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := next.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.settings.Update(next); err != nil {
		s.log.Error("save settings failed", "error", err)
		jsonError(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	s.sessions.ApplySettings(next)
	s.log.Info("settings updated", "expand_level", next.ExpandLevel, "follow_mode", next.FollowMode)
	writeJSON(w, http.StatusOK, next)
}
