package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"heatbeat/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

// Upgrader for HTTP -> WebSocket. Origin checks are handled by the CORS layer
// in front of the router; browsers cannot set Authorization on ws dials, so
// auth rides the query string instead.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSubscriber adapts one websocket connection to the hub. The mutex
// serializes Send against the ping writer; gorilla connections allow only one
// concurrent writer.
type wsSubscriber struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSubscriber(conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{id: uuid.NewString(), conn: conn}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(ev hub.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(ev)
}

func (s *wsSubscriber) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// wsSubscribe authenticates via ?token=, checks ownership, upgrades, and
// attaches the connection to the hub until the client goes away. Missed events
// while disconnected are not replayed; clients re-fetch state on reconnect.
func (h *Handler) wsSubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.services.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thermostat id"})
		return
	}
	if err := h.services.Thermostats.Authorize(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, "ws_authorize_failed", err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sub := newWSSubscriber(conn)
	h.hub.Subscribe(id, sub)
	defer h.hub.Unsubscribe(id, sub)

	// Snapshot first so the client starts from current state, then live events.
	if setting, err := h.services.Settings.Get(c.Request.Context(), id); err == nil {
		if err := sub.Send(hub.Event{Type: hub.EventSetpoint, Data: setting}); err != nil {
			return
		}
	}

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			if err := sub.ping(); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
