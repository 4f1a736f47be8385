package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// Origins are enforced by CORS and the token check, not the upgrader.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the outgoing WebSocket message format.
type wsMessage struct {
	Type    string           `json:"type"` // "outline" or "error"
	Outline *outlineResponse `json:"outline,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleOutlineWS streams the outline after every engine change and
// applies commands sent by the client.
func (s *Server) handleOutlineWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	defer conn.Close()
	log := s.log.With("session_id", sess.ID)

	changed := make(chan struct{}, 1)
	unsubscribe := sess.Outline.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	errs := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var cmd command
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read", "error", err)
				}
				return
			}
			sess.Touch()
			if err := applyCommand(sess.Outline, cmd); err != nil {
				select {
				case errs <- err.Error():
				default:
				}
			}
		}
	}()

	send := func(msg wsMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			log.Warn("websocket write", "error", err)
			return false
		}
		return true
	}
	push := func() bool {
		view := outlineView(sess)
		return send(wsMessage{Type: "outline", Outline: &view})
	}

	if !push() {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-changed:
			if !push() {
				return
			}
		case msg := <-errs:
			if !send(wsMessage{Type: "error", Error: msg}) {
				return
			}
		}
	}
}
