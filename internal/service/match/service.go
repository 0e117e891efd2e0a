package match

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

// LikeResult is returned by Like. Matched is always false: a like only
// becomes a match when the receiver accepts it.
type LikeResult struct {
	MatchID uint64 `json:"match_id"`
	Matched bool   `json:"matched"`
}

// AcceptResult carries the initiator's public profile.
type AcceptResult struct {
	MatchID uint64         `json:"match_id"`
	Matched bool           `json:"matched"`
	User    dto.PublicUser `json:"user"`
}

// CountResult is returned by PendingCount.
type CountResult struct {
	Count int64 `json:"count"`
}

// Service implements the match workflow on top of the match ledger and the
// Redis counter cache.
type Service struct {
	appCtx  *app.AppContext
	matches *repository.MatchRepository
	users   *repository.UserRepository
	now     func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		matches: repository.NewMatchRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Discover lists users the caller has no edge with, in either direction.
func (s *Service) Discover(ctx context.Context, userID uint64) ([]dto.PublicUser, error) {
	limit := s.appCtx.Config.App.DiscoverLimit
	if limit <= 0 {
		limit = 20
	}
	users, err := s.matches.Discover(ctx, userID, limit)
	if err != nil {
		s.appCtx.Logger.Error("discover failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	return dto.NewPublicUsers(users), nil
}

// Like creates a pending edge initiator -> target.
//
// Behavior:
//   - Liking yourself is a validation error.
//   - Unknown target → not found.
//   - Any existing edge for the pair, in either direction, is a conflict.
//     The unique pair index decides, so concurrent likes cannot both win.
func (s *Service) Like(ctx context.Context, initiatorID, targetID uint64) (*LikeResult, error) {
	if initiatorID == targetID {
		return nil, svcErr.Validation("you cannot like yourself")
	}

	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("user not found")
	}

	m, err := s.matches.CreatePending(ctx, initiatorID, targetID)
	if err != nil {
		if svcErr.IsDuplicate(err) {
			return nil, svcErr.Conflict("you already interacted with this user")
		}
		s.appCtx.Logger.Error("create like failed", "initiator", initiatorID, "target", targetID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.invalidatePendingCount(ctx, targetID)
	s.appCtx.Logger.Debug("like created", "match_id", m.ID, "initiator", initiatorID, "target", targetID)
	return &LikeResult{MatchID: m.ID, Matched: false}, nil
}

// Accept resolves a pending edge addressed to receiverID.
// Of two concurrent accepts only one succeeds; the other sees not found.
func (s *Service) Accept(ctx context.Context, receiverID, matchID uint64) (*AcceptResult, error) {
	m, err := s.matches.FindPendingForReceiver(ctx, matchID, receiverID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("pending like not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ok, err := s.matches.Accept(ctx, matchID, receiverID, s.now())
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !ok {
		return nil, svcErr.NotFound("pending like not found")
	}

	s.invalidatePendingCount(ctx, receiverID)
	s.appCtx.Logger.Info("match created", "match_id", matchID, "users", []uint64{m.InitiatorID, receiverID})
	return &AcceptResult{MatchID: matchID, Matched: true, User: dto.NewPublicUser(&m.Initiator)}, nil
}

// Reject deletes a pending edge addressed to receiverID. The pair can like
// each other again afterwards.
func (s *Service) Reject(ctx context.Context, receiverID, matchID uint64) error {
	ok, err := s.matches.DeletePending(ctx, matchID, receiverID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !ok {
		return svcErr.NotFound("pending like not found")
	}
	s.invalidatePendingCount(ctx, receiverID)
	return nil
}

// Pending lists likes awaiting receiverID's decision, newest first.
func (s *Service) Pending(ctx context.Context, receiverID uint64) ([]dto.PendingView, error) {
	rows, err := s.matches.ListPending(ctx, receiverID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]dto.PendingView, 0, len(rows))
	for i := range rows {
		out = append(out, dto.PendingView{
			MatchID: rows[i].ID,
			User:    dto.NewPublicUser(&rows[i].Initiator),
			LikedAt: rows[i].CreatedAt,
		})
	}
	return out, nil
}

// Matches lists resolved matches of userID with the other participant.
func (s *Service) Matches(ctx context.Context, userID uint64) ([]dto.MatchView, error) {
	rows, err := s.matches.ListMatched(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := make([]dto.MatchView, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewMatchView(&rows[i], userID))
	}
	return out, nil
}

// PendingCount returns how many likes await receiverID.
// Cache-first strategy:
//  1. Attempts to read from Redis (match:pending:count:<id>).
//  2. On a miss, counts in the DB.
//  3. Stores the DB value in Redis with a 1h TTL.
//
// Like, Accept and Reject drop the key so the next read recounts.
func (s *Service) PendingCount(ctx context.Context, receiverID uint64) (*CountResult, error) {
	rc := s.appCtx.RedisCache
	key := rc.KeyForPendingCount(receiverID)

	n, ok, err := rc.GetCount(ctx, key)
	if err != nil {
		s.appCtx.Logger.Warn("redis get failed, falling back to db", "key", key, "err", err)
	}
	if ok {
		return &CountResult{Count: n}, nil
	}

	n, err = s.matches.CountPending(ctx, receiverID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := rc.SetCount(ctx, key, n); err != nil {
		s.appCtx.Logger.Warn("redis set failed", "key", key, "err", err)
	}
	return &CountResult{Count: n}, nil
}

func (s *Service) invalidatePendingCount(ctx context.Context, receiverID uint64) {
	rc := s.appCtx.RedisCache
	key := rc.KeyForPendingCount(receiverID)
	if err := rc.Del(ctx, key); err != nil {
		s.appCtx.Logger.Warn("redis del failed", "key", key, "err", err)
	}
}
