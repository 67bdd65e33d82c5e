// Package realtime pushes refresh notifications to open dashboards over
// websocket, so a page can re-pull instead of polling.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/statusboard/pkg/logger"
)

const writeTimeout = 5 * time.Second

// Event is a message broadcast to every connected client.
type Event struct {
	Type      string    `json:"type"`
	FetchedAt time.Time `json:"fetchedAt"`
	Rows      int       `json:"rows"`
}

// EventSnapshotRefreshed signals that a new snapshot replaced the cached one.
const EventSnapshotRefreshed = "snapshot_refreshed"

// Hub tracks websocket subscribers and broadcasts events to them
// SSOT: websocket connections are managed only here
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	conns map[*websocket.Conn]bool
	mu    sync.Mutex
}

// NewHub creates a new broadcast hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is same-origin in production and the feed is
			// read-only, so cross-origin subscribers are harmless
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP lets the hub be mounted directly on a route.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWS(w, r)
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("Websocket client connected")

	// Clients never send application messages; the read loop only detects
	// disconnects
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every connected client. Slow or dead
// connections are dropped.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Debug("Dropping websocket client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.conns, conn)
}
