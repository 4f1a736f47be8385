package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/go-chi/chi/v5"
)

type appendMessageRequest struct {
	Role    chat.Role `json:"role"`
	Content string    `json:"content"`
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Role != chat.RoleUser && req.Role != chat.RoleAssistant {
		jsonError(w, `role must be "user" or "assistant"`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}

	idx := sess.Document.AppendMessage(req.Role, req.Content)
	writeJSON(w, http.StatusCreated, map[string]int{"index": idx})
}

type appendChunkRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAppendChunk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req appendChunkRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess.Document.AppendChunk(req.Content)
	w.WriteHeader(http.StatusAccepted)
}

// handleGeneration relays the host's generation events to both the
// document and the engine.
func (s *Server) handleGeneration(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	switch chi.URLParam(r, "phase") {
	case "start":
		sess.Document.StartGeneration()
		sess.Outline.NotifyGenerationStart()
	case "complete":
		sess.Document.CompleteGeneration()
		sess.Outline.NotifyGenerationComplete()
	default:
		jsonError(w, "phase must be start or complete", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scheduler":                 sess.Outline.SchedulerState().String(),
		"post_generation_scheduled": sess.Outline.PostGenerationScheduled(),
	})
}

type scrollRequest struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height,omitempty"`
	Reveal bool    `json:"reveal,omitempty"`
}

// handleScroll moves the viewport and reports the outline row to highlight.
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req scrollRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Height > 0 {
		sess.Document.SetViewportHeight(req.Height)
	}
	sess.Document.ScrollTo(req.Top)

	idx, found := sess.Outline.CurrentItemIndex()
	if found && req.Reveal {
		sess.Outline.RevealNode(idx)
	}
	top, bottom := sess.Document.Viewport()
	writeJSON(w, http.StatusOK, map[string]any{
		"index":    idx,
		"found":    found,
		"viewport": []float64{top, bottom},
	})
}
