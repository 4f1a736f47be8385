package api

import (
	"fmt"
	"net/http"

	"github.com/dgallion1/outlinesync/internal/outline"
	"github.com/dgallion1/outlinesync/internal/session"
	"github.com/go-chi/chi/v5"
)

// row is one visible outline row, flattened for simple clients.
type row struct {
	Index       int    `json:"index"`
	Depth       int    `json:"depth"`
	Level       int    `json:"level"`
	Text        string `json:"text"`
	IsUserQuery bool   `json:"is_user_query,omitempty"`
	QueryIndex  int    `json:"query_index,omitempty"`
	HasChildren bool   `json:"has_children"`
	Collapsed   bool   `json:"collapsed"`
	IsMatch     bool   `json:"is_match,omitempty"`
}

type outlineResponse struct {
	outline.State
	Rows      []row  `json:"rows"`
	Scheduler string `json:"scheduler"`
}

func outlineView(sess *session.Session) outlineResponse {
	st := sess.Outline.State()
	visible := outline.VisibleRows(st)
	rows := make([]row, 0, len(visible))
	for _, v := range visible {
		n := v.Node
		rows = append(rows, row{
			Index:       n.Index,
			Depth:       v.Depth,
			Level:       n.Level,
			Text:        n.Text,
			IsUserQuery: n.IsUserQuery,
			QueryIndex:  n.QueryIndex,
			HasChildren: len(n.Children) > 0,
			Collapsed:   n.Collapsed,
			IsMatch:     n.IsMatch,
		})
	}
	return outlineResponse{
		State:     st,
		Rows:      rows,
		Scheduler: sess.Outline.SchedulerState().String(),
	}
}

// command is an outline action, sent as the body of an action route or as
// a WebSocket message.
type command struct {
	Type   string `json:"type"`
	Level  *int   `json:"level,omitempty"`
	Index  *int   `json:"index,omitempty"`
	Query  string `json:"query,omitempty"`
	Show   *bool  `json:"show,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// commandError carries the HTTP status for a rejected command.
type commandError struct {
	code int
	msg  string
}

func (e *commandError) Error() string { return e.msg }

func badCommand(format string, args ...any) error {
	return &commandError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func applyCommand(eng *outline.Manager, cmd command) error {
	switch cmd.Type {
	case "refresh":
		if cmd.Level != nil {
			eng.RefreshWithLevel(*cmd.Level)
		} else {
			eng.Refresh()
		}
	case "level":
		if cmd.Level == nil || *cmd.Level < 0 || *cmd.Level > 6 {
			return badCommand("level must be between 0 and 6")
		}
		eng.SetLevel(*cmd.Level)
	case "collapse-all":
		eng.CollapseAll()
	case "expand-all":
		eng.ExpandAll()
	case "toggle":
		if cmd.Index == nil {
			return badCommand("index is required")
		}
		if !eng.ToggleIndex(*cmd.Index) {
			return &commandError{code: http.StatusNotFound, msg: "node not found"}
		}
	case "search":
		eng.SetSearchQuery(cmd.Query)
	case "reveal":
		if cmd.Index == nil {
			return badCommand("index is required")
		}
		if !eng.RevealNode(*cmd.Index) {
			return &commandError{code: http.StatusNotFound, msg: "node not found"}
		}
	case "clear-reveal":
		eng.ClearForceVisible()
	case "user-queries":
		if cmd.Show == nil {
			return badCommand("show is required")
		}
		eng.SetShowUserQueries(*cmd.Show)
	case "active":
		if cmd.Active == nil {
			return badCommand("active is required")
		}
		eng.SetActive(*cmd.Active)
	default:
		return &commandError{code: http.StatusNotFound, msg: fmt.Sprintf("unknown action %q", cmd.Type)}
	}
	return nil
}

func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, outlineView(sess))
}

func (s *Server) handleOutlineAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var cmd command
	if err := decodeJSON(r, &cmd); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.Type = chi.URLParam(r, "action")

	if err := applyCommand(sess.Outline, cmd); err != nil {
		code := http.StatusInternalServerError
		if ce, ok := err.(*commandError); ok {
			code = ce.code
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusOK, outlineView(sess))
}
