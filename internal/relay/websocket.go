package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oggyb/campus-match/internal/auth"
	"github.com/oggyb/campus-match/internal/web"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameBytes  = 64 << 10
	sendBufferSize = 64
)

// ErrSlowConsumer is returned by Send when a connection's buffer is full.
// The connection is dropped.
var ErrSlowConsumer = errors.New("relay connection send buffer full")

var errPeerClosed = errors.New("relay connection closed")

// Frame is the JSON message exchanged over /ws in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WSHandler upgrades authenticated requests to WebSocket relay connections.
type WSHandler struct {
	hub      *Hub
	chat     Chat
	auth     AuthFunc
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the /ws endpoint. allowedOrigins may contain "*".
func NewWSHandler(hub *Hub, chat Chat, authFn AuthFunc, allowedOrigins []string, log *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:  hub,
		chat: chat,
		auth: authFn,
		log:  log.With("transport", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP authenticates before upgrading; a bad token never gets a socket.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, err := h.auth(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug("websocket upgrade failed", "err", err)
		return
	}

	c := newWSPeer(conn)
	sess := NewSession(h.hub, h.chat, ident, c, h.log)

	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()), sess)
}

// wsPeer owns one websocket: a reader (readPump) and a single writer
// (writePump) fed through a bounded queue.
type wsPeer struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan Frame
	closed bool
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{
		id:   "ws:" + uuid.NewString(),
		conn: conn,
		send: make(chan Frame, sendBufferSize),
	}
}

func (c *wsPeer) ID() string { return c.id }

// Send queues a frame. A full queue drops the connection.
func (c *wsPeer) Send(event string, data json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errPeerClosed
	}
	select {
	case c.send <- Frame{Event: event, Data: data}:
		return nil
	default:
		c.closeLocked()
		return ErrSlowConsumer
	}
}

func (c *wsPeer) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *wsPeer) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsPeer) readPump(ctx context.Context, sess *Session) {
	defer func() {
		sess.Close()
		c.close()
	}()

	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				sess.Emit(EventError, ErrorPayload{Message: "invalid frame"})
				continue
			}
			return
		}
		sess.Handle(ctx, f.Event, f.Data)
	}
}

func (c *wsPeer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
