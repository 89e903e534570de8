package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/health"
	"github.com/lendfront/unirouter/internal/logging"
)

// Hub is the WebSocket observer feed: a read-only debugging aid that
// pushes a chat.turn event for every handled chat and answers health
// requests on demand. Observers cannot send chats through it.
type Hub struct {
	monitor  *health.Monitor
	upgrader websocket.Upgrader
	log      *logging.Logger

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

// wsConn serializes writes to one connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// ChatTurnEvent is pushed to observers after each handled chat.
type ChatTurnEvent struct {
	Type       string `json:"type"`
	Backend    string `json:"backend"`
	SessionID  string `json:"session_id"`
	DurationMs int64  `json:"duration_ms"`
}

// NewHub creates the observer hub.
func NewHub(monitor *health.Monitor, allowedOrigins []string, log *logging.Logger) *Hub {
	return &Hub{
		monitor: monitor,
		log:     log.Sub("ws"),
		conns:   make(map[*wsConn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(allowedOrigins),
		},
	}
}

// checkWebSocketOrigin validates the Origin header against the
// configured list. Requests without an Origin (non-browser clients)
// are always allowed.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// handleWS upgrades the connection and runs its read loop.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4096)

	c := &wsConn{conn: conn}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("observer connected")

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		conn.Close()
		h.log.Debug().Str("remote", r.RemoteAddr).Msg("observer disconnected")
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		// The only inbound command is a health snapshot request.
		if string(msg) == "health" {
			snap := h.monitor.Check(r.Context())
			if err := c.writeJSON(map[string]any{
				"type":    "health",
				"status":  snap.Status,
				"message": snap.Message,
			}); err != nil {
				return
			}
		}
	}
}

// BroadcastChatTurn pushes a chat.turn event to every observer.
// A connection that cannot be written to is dropped.
func (h *Hub) BroadcastChatTurn(backend domain.Backend, sessionID string, duration time.Duration) {
	event := ChatTurnEvent{
		Type:       "chat.turn",
		Backend:    backend.String(),
		SessionID:  sessionID,
		DurationMs: duration.Milliseconds(),
	}

	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.writeJSON(event); err != nil {
			h.log.Debug().Err(err).Msg("dropping unresponsive observer")
			h.mu.Lock()
			delete(h.conns, c)
			h.mu.Unlock()
			c.conn.Close()
		}
	}
}

// CloseAll closes every observer connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.conn.Close()
		delete(h.conns, c)
	}
}
