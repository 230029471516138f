package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Conn is the write side of one subscriber connection. *websocket.Conn
// satisfies it.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub tracks the live connections of one feed, grouped by organization.
// Data frames are written only by the listener goroutine that drives
// Dispatch; keep-alive pings ride WriteControl, which gorilla allows
// alongside a writer.
type Hub struct {
	name   string
	mu     sync.RWMutex
	conns  map[string]map[Conn]struct{}
	logger *zerolog.Logger
}

func NewHub(name string, logger *zerolog.Logger) *Hub {
	return &Hub{
		name:   name,
		conns:  make(map[string]map[Conn]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(orgID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[orgID] == nil {
		h.conns[orgID] = make(map[Conn]struct{})
	}
	h.conns[orgID][c] = struct{}{}

	h.logger.Debug().
		Str("hub", h.name).
		Str("organization_id", orgID).
		Int("connections", len(h.conns[orgID])).
		Msg("websocket client registered")
}

// Unregister removes a connection. Removing one that is already gone
// is a no-op, so the disconnect path and the failed-write path may both
// call it.
func (h *Hub) Unregister(orgID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.conns[orgID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(h.conns, orgID)
	}

	h.logger.Debug().
		Str("hub", h.name).
		Str("organization_id", orgID).
		Msg("websocket client unregistered")
}

// Dispatch sends payload to every connection of the organization. A
// connection that fails to take the write is dropped and closed; the
// rest still get the message.
func (h *Hub) Dispatch(orgID string, payload []byte) {
	h.mu.RLock()
	clients := make([]Conn, 0, len(h.conns[orgID]))
	for c := range h.conns[orgID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := h.send(c, payload); err != nil {
			h.logger.Debug().Err(err).
				Str("hub", h.name).
				Str("organization_id", orgID).
				Msg("dropping unresponsive websocket client")
			h.Unregister(orgID, c)
			c.Close()
		}
	}
}

func (h *Hub) send(c Conn, payload []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, payload)
}

// Count reports how many connections an organization currently has.
func (h *Hub) Count(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[orgID])
}
