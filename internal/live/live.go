// Package live runs highlight sessions over a websocket. The browser
// forwards its load, click and hashchange events; every message is reduced
// by a per-connection controller and answered with the effects to apply.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pastemark/internal/filetable"
	"github.com/ziadkadry99/pastemark/internal/highlight"
	"github.com/ziadkadry99/pastemark/internal/paste"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Documents looks up the rendered tables of a paste.
type Documents interface {
	Document(ctx context.Context, id string) (*filetable.Document, error)
}

// Handler serves highlight sessions.
type Handler struct {
	docs Documents
}

// New creates a handler backed by docs.
func New(docs Documents) *Handler {
	return &Handler{docs: docs}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/highlight/{id}", h.handleWebSocket)
}

// request is the incoming websocket message format.
type request struct {
	Type     string           `json:"type"` // "load", "click" or "hashchange"
	Fragment string           `json:"fragment"`
	Old      string           `json:"old"`
	New      string           `json:"new"`
	File     int              `json:"file"`
	Shift    bool             `json:"shift"`
	Target   highlight.Target `json:"target"`
}

// response is the outgoing websocket message format.
type response struct {
	Type      string             `json:"type"` // "effects" or "error"
	SessionID string             `json:"session_id"`
	Effects   []highlight.Effect `json:"effects,omitempty"`
	Address   string             `json:"address,omitempty"`
	Message   string             `json:"message,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.docs.Document(r.Context(), id)
	if errors.Is(err, paste.ErrNotFound) {
		http.Error(w, "paste not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("live: loading paste %s: %v", id, err)
		http.Error(w, "loading paste failed", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sess := &session{
		id:         uuid.NewString(),
		conn:       conn,
		controller: highlight.New(doc.Layout()),
	}
	sess.run()
}

type session struct {
	id         string
	conn       *websocket.Conn
	controller *highlight.Controller
}

func (s *session) run() {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live: websocket read: %v", err)
			}
			return
		}

		var req request
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError("invalid message format")
			continue
		}

		ev, ok, errMsg := req.event()
		if errMsg != "" {
			s.sendError(errMsg)
			continue
		}
		var effects []highlight.Effect
		if ok {
			effects = s.controller.Handle(ev)
		}
		s.send(response{
			Type:      "effects",
			SessionID: s.id,
			Effects:   effects,
			Address:   s.controller.Address(),
		})
	}
}

// event converts a request into a controller event. A click that does not
// land on a line yields no event and no error.
func (req request) event() (highlight.Event, bool, string) {
	switch req.Type {
	case "load":
		return highlight.Load{Fragment: req.Fragment}, true, ""
	case "hashchange":
		return highlight.HashChange{Old: req.Old, New: req.New}, true, ""
	case "click":
		click, ok := highlight.ClickOn(req.File, req.Target, req.Shift)
		if !ok {
			return nil, false, ""
		}
		return click, true, ""
	default:
		return nil, false, "unknown message type: " + req.Type
	}
}

func (s *session) send(resp response) {
	if err := s.conn.WriteJSON(resp); err != nil {
		log.Printf("live: websocket write: %v", err)
	}
}

func (s *session) sendError(message string) {
	s.send(response{Type: "error", SessionID: s.id, Message: message})
}
