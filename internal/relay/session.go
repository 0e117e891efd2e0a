package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	apperr "github.com/oggyb/campus-match/internal/errors"
)

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID uint64
	Name   string
	Avatar string
}

// AuthFunc verifies a connection token once, at connect time.
type AuthFunc func(ctx context.Context, token string) (Identity, error)

// Chat is the persistence side of the relay.
//
// CanJoin fails unless userID participates in a matched edge with that id.
// SendMessage validates, persists and then broadcasts new_message to the
// match room through the hub.
type Chat interface {
	CanJoin(ctx context.Context, userID, matchID uint64) error
	SendMessage(ctx context.Context, userID, matchID uint64, content string) error
}

// Session is the per-connection state machine:
// authenticated -> joined(room...) -> closed.
type Session struct {
	ident Identity
	peer  Peer
	hub   *Hub
	chat  Chat
	log   *slog.Logger
}

func NewSession(hub *Hub, chat Chat, ident Identity, peer Peer, log *slog.Logger) *Session {
	return &Session{
		ident: ident,
		peer:  peer,
		hub:   hub,
		chat:  chat,
		log:   log.With("peer", peer.ID(), "user_id", ident.UserID),
	}
}

// Handle dispatches one client event. Failures are reported to this
// connection only, as an error event.
func (s *Session) Handle(ctx context.Context, event string, data json.RawMessage) {
	var err error
	switch event {
	case EventJoinChat:
		err = s.join(ctx, data)
	case EventSendMessage:
		err = s.send(ctx, data)
	case EventTypingStart:
		err = s.typing(ctx, data, EventUserTyping, TypingPayload{UserID: s.ident.UserID, UserName: s.ident.Name})
	case EventTypingStop:
		err = s.typing(ctx, data, EventUserStopTyping, TypingPayload{UserID: s.ident.UserID})
	default:
		err = apperr.Validationf("unknown event %q", event)
	}
	if err != nil {
		s.fail(event, err)
	}
}

func (s *Session) join(ctx context.Context, data json.RawMessage) error {
	matchID, err := ParseMatchRef(data)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	if err := s.chat.CanJoin(ctx, s.ident.UserID, matchID); err != nil {
		return err
	}
	s.hub.Join(RoomFor(matchID), s.peer)
	s.log.Debug("joined chat", "match_id", matchID)
	return nil
}

func (s *Session) send(ctx context.Context, data json.RawMessage) error {
	var p SendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return apperr.Validation("invalid message payload")
	}
	if p.MatchID() == 0 {
		return apperr.Validation(errBadMatchRef.Error())
	}
	return s.chat.SendMessage(ctx, s.ident.UserID, p.MatchID(), p.Content)
}

func (s *Session) typing(ctx context.Context, data json.RawMessage, event string, payload TypingPayload) error {
	matchID, err := ParseMatchRef(data)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	room := RoomFor(matchID)
	if !s.hub.InRoom(room, s.peer.ID()) {
		return apperr.Forbidden("join the chat first")
	}
	return s.hub.Broadcast(ctx, room, event, payload, s.peer.ID())
}

func (s *Session) fail(event string, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error("relay event failed", "event", event, "err", err)
	} else {
		s.log.Debug("relay event rejected", "event", event, "err", err)
	}
	s.Emit(EventError, ErrorPayload{Message: apperr.PublicMessage(err)})
}

// Emit sends an event to this connection only.
func (s *Session) Emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to encode relay event", "event", event, "err", err)
		return
	}
	if err := s.peer.Send(event, data); err != nil {
		s.log.Debug("relay send failed", "event", event, "err", err)
	}
}

// Close leaves every room. The transport closes the connection itself.
func (s *Session) Close() {
	s.hub.LeaveAll(s.peer.ID())
	s.log.Debug("relay session closed")
}
