// Package ws streams board and project events to WebSocket clients.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tavolahq/tavola/internal/events"
)

// Hub manages WebSocket connections backed by the event broker. Clients
// that pass their last seen sequence ID via ?from= get every event emitted
// since, so a dropped connection loses nothing.
type Hub struct {
	broker events.Broker
}

// NewHub creates a new WebSocket hub.
func NewHub(broker events.Broker) *Hub {
	return &Hub{broker: broker}
}

// ServeBoard handles WebSocket connections for a board's event feed.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, events.BoardTopic(chi.URLParam(r, "shortName")))
}

// ServeProject handles WebSocket connections for a project's event feed.
func (h *Hub) ServeProject(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, events.ProjectTopic(chi.URLParam(r, "shortName")))
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, topic string) {
	lastSeq := r.URL.Query().Get("from")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.broker.Subscribe(ctx, topic, lastSeq)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case ev, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("websocket event marshal")
				continue
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, payload); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
