package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/metrics"
)

// Hub fans controller events out to websocket clients.
type Hub struct {
	snapshot func() conversion.Event
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub builds the hub. The snapshot callback produces the greeting event
// sent to every client right after the upgrade.
func NewHub(snapshot func() conversion.Event) *Hub {
	return &Hub{
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// HandleWS upgrades the connection, greets the client with the current
// snapshot and keeps it subscribed until it disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", r.RemoteAddr).Msg("Websocket upgrade failed")
		return
	}

	if err := conn.WriteJSON(h.snapshot()); err != nil {
		log.Debug().Err(err).Msg("Failed to send snapshot, dropping client")
		_ = conn.Close()
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	metrics.WSClients.Inc()

	log.Debug().Str("ip", r.RemoteAddr).Msg("Websocket client connected")

	go h.readLoop(conn)
}

// readLoop discards client frames and detects disconnects.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	connected := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if connected {
		metrics.WSClients.Dec()
		_ = conn.Close()
		log.Debug().Str("ip", conn.RemoteAddr().String()).Msg("Websocket client disconnected")
	}
}

// Run broadcasts every controller event until the channel closes.
func (h *Hub) Run(events <-chan conversion.Event) {
	for evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			log.Error().Err(err).Str("type", string(evt.Type)).Msg("Failed to marshal event")
			continue
		}
		h.broadcast(payload)
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
}
