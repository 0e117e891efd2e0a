package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"

	"github.com/oggyb/campus-match/internal/auth"
	apperr "github.com/oggyb/campus-match/internal/errors"
)

const socketIONamespace = "/"

// SocketIOServer serves the relay to Socket.IO clients under /socket.io/.
// It drives the same Session as the raw WebSocket transport.
type SocketIOServer struct {
	srv  *socketio.Server
	hub  *Hub
	chat Chat
	auth AuthFunc
	log  *slog.Logger
}

func NewSocketIOServer(hub *Hub, chat Chat, authFn AuthFunc, log *slog.Logger) *SocketIOServer {
	s := &SocketIOServer{
		srv:  socketio.NewServer(nil),
		hub:  hub,
		chat: chat,
		auth: authFn,
		log:  log.With("transport", "socketio"),
	}

	s.srv.OnConnect(socketIONamespace, s.onConnect)
	for _, event := range []string{EventJoinChat, EventSendMessage, EventTypingStart, EventTypingStop} {
		s.srv.OnEvent(socketIONamespace, event, s.handler(event))
	}
	s.srv.OnError(socketIONamespace, func(c socketio.Conn, err error) {
		if c == nil {
			s.log.Warn("socket.io error", "err", err)
			return
		}
		s.log.Warn("socket.io error", "conn", c.ID(), "err", err)
	})
	s.srv.OnDisconnect(socketIONamespace, func(c socketio.Conn, reason string) {
		if sess, ok := c.Context().(*Session); ok {
			sess.Close()
		}
		s.log.Debug("socket.io disconnected", "conn", c.ID(), "reason", reason)
	})
	return s
}

// onConnect authenticates from the handshake request: the Authorization
// header or the ?token= query. The Socket.IO v4 auth payload is not
// readable here, so clients pass the token in the URL. Failing connections
// get one error event and are closed.
func (s *SocketIOServer) onConnect(c socketio.Conn) error {
	u := c.URL()
	ident, err := s.auth(context.Background(), auth.TokenFrom(c.RemoteHeader(), u.Query()))
	if err != nil {
		c.Emit(EventError, ErrorPayload{Message: apperr.PublicMessage(err)})
		_ = c.Close()
		return err
	}

	peer := &sioPeer{id: "sio:" + uuid.NewString(), conn: c}
	c.SetContext(NewSession(s.hub, s.chat, ident, peer, s.log))
	s.log.Debug("socket.io connected", "conn", c.ID(), "user_id", ident.UserID)
	return nil
}

func (s *SocketIOServer) handler(event string) func(socketio.Conn, json.RawMessage) {
	return func(c socketio.Conn, data json.RawMessage) {
		sess, ok := c.Context().(*Session)
		if !ok {
			c.Emit(EventError, ErrorPayload{Message: "access token required"})
			return
		}
		sess.Handle(context.Background(), event, data)
	}
}

// Serve runs the engine loop; it returns when Close is called.
func (s *SocketIOServer) Serve() error { return s.srv.Serve() }

func (s *SocketIOServer) Close() error { return s.srv.Close() }

func (s *SocketIOServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.ServeHTTP(w, r)
}

type sioPeer struct {
	id   string
	mu   sync.Mutex
	conn socketio.Conn
}

func (p *sioPeer) ID() string { return p.id }

func (p *sioPeer) Send(event string, data json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.Emit(event, data)
	return nil
}
