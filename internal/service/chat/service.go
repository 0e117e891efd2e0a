package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/relay"
	"github.com/oggyb/campus-match/internal/repository"
)

const maxMessageLen = 2000

// ReadResult is returned by MarkRead.
type ReadResult struct {
	Updated int64 `json:"updated"`
}

// Service serves conversations and messages of matched users and is the
// persistence side of the relay (it satisfies relay.Chat).
type Service struct {
	appCtx   *app.AppContext
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

var _ relay.Chat = (*Service)(nil)

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// participant loads a matched edge userID belongs to. Missing, pending and
// foreign edges all read as not found.
func (s *Service) participant(ctx context.Context, userID, matchID uint64) (*db.Match, error) {
	m, err := s.matches.FindMatchedForUser(ctx, matchID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return m, nil
}

// Conversations lists the caller's matches with the last message and the
// unread count, most recent activity first.
func (s *Service) Conversations(ctx context.Context, userID uint64) ([]dto.ConversationView, error) {
	matched, err := s.matches.ListMatched(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(matched) == 0 {
		return []dto.ConversationView{}, nil
	}

	ids := make([]uint64, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.ID)
	}
	last, err := s.messages.LastMessages(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	unread, err := s.messages.UnreadCounts(ctx, ids, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]dto.ConversationView, 0, len(matched))
	for i := range matched {
		mv := dto.NewMatchView(&matched[i], userID)
		c := dto.ConversationView{
			MatchID:     mv.MatchID,
			User:        mv.User,
			MatchedAt:   mv.MatchedAt,
			UnreadCount: unread[mv.MatchID],
		}
		if msg, ok := last[mv.MatchID]; ok {
			c.LastMessage = &dto.LastMessage{
				Content:   msg.Content,
				SenderID:  msg.SenderID,
				IsRead:    msg.IsRead,
				CreatedAt: msg.CreatedAt,
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity().After(out[j].LastActivity())
	})
	return out, nil
}

// History returns a conversation in ascending time order.
func (s *Service) History(ctx context.Context, userID, matchID uint64) ([]dto.MessageView, error) {
	if _, err := s.participant(ctx, userID, matchID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.NewMessageViews(msgs), nil
}

// Send persists a message and then broadcasts new_message to the match room.
//
// Behavior:
//   - Content is trimmed; empty or longer than 2000 characters is invalid.
//   - The sender must participate in a matched edge with that id.
//   - A failed broadcast is logged; the message stays persisted and is
//     still returned.
func (s *Service) Send(ctx context.Context, userID, matchID uint64, content string) (*dto.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.Validation("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, svcErr.Validationf("message must be at most %d characters", maxMessageLen)
	}
	if _, err := s.participant(ctx, userID, matchID); err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, &db.Message{
		MatchID:  matchID,
		SenderID: userID,
		Content:  content,
		Type:     db.MessageText,
	})
	if err != nil {
		s.appCtx.Logger.Error("persist message failed", "match_id", matchID, "err", err)
		return nil, svcErr.Map(err)
	}

	view := dto.NewMessageView(msg)
	if err := s.appCtx.Hub.Broadcast(ctx, relay.RoomFor(matchID), relay.EventNewMessage, view, ""); err != nil {
		s.appCtx.Logger.Warn("broadcast message failed", "match_id", matchID, "message_id", msg.ID, "err", err)
	}
	return &view, nil
}

// MarkRead flips the unread messages of the other participant.
func (s *Service) MarkRead(ctx context.Context, userID, matchID uint64) (*ReadResult, error) {
	if _, err := s.participant(ctx, userID, matchID); err != nil {
		return nil, err
	}
	n, err := s.messages.MarkRead(ctx, matchID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ReadResult{Updated: n}, nil
}

// CanJoin implements relay.Chat.
func (s *Service) CanJoin(ctx context.Context, userID, matchID uint64) error {
	_, err := s.participant(ctx, userID, matchID)
	return err
}

// SendMessage implements relay.Chat.
func (s *Service) SendMessage(ctx context.Context, userID, matchID uint64, content string) error {
	_, err := s.Send(ctx, userID, matchID, content)
	return err
}
