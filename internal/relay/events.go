// Package relay is the real-time chat fan-out: rooms keyed by match id,
// connection sessions driving join/send/typing, and the broker that carries
// room events between server instances. Transports (raw WebSocket and
// Socket.IO) only translate frames into Session calls.
package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Client -> server events.
const (
	EventJoinChat    = "join_chat"
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
)

// Server -> client events.
const (
	EventNewMessage     = "new_message"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventError          = "error"
)

var errBadMatchRef = errors.New("match id must be a positive integer")

// RoomFor names the room of a match.
func RoomFor(matchID uint64) string {
	return "match_" + strconv.FormatUint(matchID, 10)
}

// MatchRef is a match id sent either as a JSON number or a numeric string.
type MatchRef uint64

func (m *MatchRef) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errBadMatchRef
	}
	*m = MatchRef(n)
	return nil
}

// matchRefObject is the object form of a match reference. Both key
// spellings are accepted.
type matchRefObject struct {
	MatchID    MatchRef `json:"match_id"`
	MatchIDAlt MatchRef `json:"matchId"`
}

func (o matchRefObject) id() uint64 {
	if o.MatchID != 0 {
		return uint64(o.MatchID)
	}
	return uint64(o.MatchIDAlt)
}

// ParseMatchRef accepts 12, "12", {"match_id": 12} or {"matchId": "12"}.
func ParseMatchRef(data json.RawMessage) (uint64, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj matchRefObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return 0, errBadMatchRef
		}
		if obj.id() == 0 {
			return 0, errBadMatchRef
		}
		return obj.id(), nil
	}

	var ref MatchRef
	if err := json.Unmarshal(trimmed, &ref); err != nil || ref == 0 {
		return 0, errBadMatchRef
	}
	return uint64(ref), nil
}

// SendPayload is the body of send_message.
type SendPayload struct {
	matchRefObject
	Content string `json:"content"`
}

func (p SendPayload) MatchID() uint64 { return p.id() }

// TypingPayload is the body of user_typing and user_stop_typing.
type TypingPayload struct {
	UserID   uint64 `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ErrorPayload is the body of error events.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Envelope is one room event as it travels through the broker.
// Exclude, when set, is the peer id that must not receive it.
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Exclude string          `json:"exclude,omitempty"`
}

func (e Envelope) String() string {
	return fmt.Sprintf("%s@%s", e.Event, e.Room)
}
