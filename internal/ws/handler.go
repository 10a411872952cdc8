package ws

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/shared/id"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)


// Message is a client or control frame on the event stream
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Time    int64  `json:"timestamp,omitempty"`
}

// SessionLookup reports whether a session is open
type SessionLookup func(sid id.SessionID) bool

// Handler serves GET /sessions/:id/events
type Handler struct {
	hub      *Hub
	lookup   SessionLookup
	logger   *zap.Logger
	origins  []string
	upgrader websocket.Upgrader
}

// Option configures a Handler
type Option func(*Handler)

// WithAllowedOrigins limits browser connections to the given origins, matching
// the CORS setting of the REST routes. An empty list or "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// NewHandler creates a websocket handler over hub
func NewHandler(hub *Hub, lookup SessionLookup, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{hub: hub, lookup: lookup, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header, same-host requests
// and the configured origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// HandleConnection upgrades the request and streams the session's events
// until the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	sid := id.SessionID(c.Param("id"))
	if !sid.Valid() || !h.lookup(sid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found", "code": "not_found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", string(sid)), zap.Error(err))
		return
	}
	defer conn.Close()

	if m := h.hub.metrics; m != nil {
		m.IncWSConnections()
		defer m.DecWSConnections()
	}

	events, unsubscribe := h.hub.Subscribe(string(sid))
	defer unsubscribe()

	h.logger.Debug("event stream opened", zap.String("session_id", string(sid)))

	inbound := make(chan Message, 4)
	done := make(chan struct{})
	go h.readLoop(conn, inbound, done)

	if err := h.send(conn, Message{Type: "system", Message: "subscribed to " + string(sid), Time: time.Now().Unix()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case e := <-events:
			if err := h.send(conn, e); err != nil {
				return
			}
			h.hub.recordOut(e.Type)
		case msg := <-inbound:
			switch msg.Type {
			case "ping":
				err = h.send(conn, Message{Type: "pong", Time: time.Now().Unix()})
			default:
				err = h.send(conn, Message{Type: "error", Message: "unknown message type"})
			}
			if err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop owns all reads on conn and closes done when the peer goes away
func (h *Handler) readLoop(conn *websocket.Conn, inbound chan<- Message, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		h.hub.recordIn(msg.Type)
		select {
		case inbound <- msg:
		default:
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (h *Hub) recordIn(typ string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("in", typ)
	}
}

func (h *Hub) recordOut(typ string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", typ)
	}
}
