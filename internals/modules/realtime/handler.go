package realtime

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	monitors  *Hub
	incidents *Hub
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
}

func NewHandler(monitors, incidents *Hub, logger *zerolog.Logger) *Handler {
	return &Handler{
		monitors:  monitors,
		incidents: incidents,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *Handler) MonitorUpdates(w http.ResponseWriter, r *http.Request) {
	h.serve(h.monitors, w, r)
}

func (h *Handler) IncidentUpdates(w http.ResponseWriter, r *http.Request) {
	h.serve(h.incidents, w, r)
}

func (h *Handler) serve(hub *Hub, w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "organizationID")
	if _, err := uuid.Parse(orgID); err != nil {
		http.Error(w, "invalid organization id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	hub.Register(orgID, conn)

	done := make(chan struct{})
	go h.keepAlive(conn, done)

	defer func() {
		close(done)
		hub.Unregister(orgID, conn)
		conn.Close()
	}()

	// Clients only listen. The read loop exists to process pongs and to
	// notice the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				h.logger.Debug().Err(err).
					Str("hub", hub.name).
					Str("organization_id", orgID).
					Msg("websocket read failed")
			}
			return
		}
	}
}

// keepAlive pings the peer on a timer. WriteControl is safe next to the
// hub's data writes.
func (h *Handler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
