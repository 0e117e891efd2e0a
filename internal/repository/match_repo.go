package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
)

// MatchRepository is the match ledger: directed like edges and their state.
// The unique index on (pair_low, pair_high) guarantees one row per pair of
// users regardless of direction.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreatePending inserts a pending edge initiator -> receiver.
//
// Behavior:
//   - No existence check beforehand: a row for the pair in either direction
//     makes the insert fail on idx_match_pair, so concurrent likes cannot
//     both succeed.
//   - Callers map the duplicate-key error to a conflict.
func (r *MatchRepository) CreatePending(ctx context.Context, initiatorID, receiverID uint64) (*db.Match, error) {
	m := &db.Match{
		InitiatorID: initiatorID,
		ReceiverID:  receiverID,
		Status:      db.MatchPending,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// FindPendingForReceiver loads a pending edge addressed to receiverID, with
// the initiator preloaded. gorm.ErrRecordNotFound otherwise, which also
// covers callers that initiated the edge themselves.
func (r *MatchRepository) FindPendingForReceiver(ctx context.Context, matchID, receiverID uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Where("id = ? AND receiver_id = ? AND status = ?", matchID, receiverID, db.MatchPending).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Accept flips a pending edge to matched.
//
// The update is conditional on status = pending and receiver_id, so of two
// concurrent accepts only one reports true.
func (r *MatchRepository) Accept(ctx context.Context, matchID, receiverID uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND receiver_id = ? AND status = ?", matchID, receiverID, db.MatchPending).
		Updates(map[string]any{"status": db.MatchMatched, "matched_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeletePending removes a pending edge addressed to receiverID.
// Rejection is not remembered; the pair is free again afterwards.
func (r *MatchRepository) DeletePending(ctx context.Context, matchID, receiverID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND receiver_id = ? AND status = ?", matchID, receiverID, db.MatchPending).
		Delete(&db.Match{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPending returns pending edges addressed to receiverID, newest first.
func (r *MatchRepository) ListPending(ctx context.Context, receiverID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Where("receiver_id = ? AND status = ?", receiverID, db.MatchPending).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// CountPending counts pending edges addressed to receiverID.
func (r *MatchRepository) CountPending(ctx context.Context, receiverID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("receiver_id = ? AND status = ?", receiverID, db.MatchPending).
		Count(&count).Error
	return count, err
}

// ListMatched returns matched edges where userID is either participant,
// most recently matched first, with both participants preloaded.
func (r *MatchRepository) ListMatched(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Preload("Receiver").
		Where("(initiator_id = ? OR receiver_id = ?) AND status = ?", userID, userID, db.MatchMatched).
		Order("matched_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// FindMatchedForUser loads a matched edge that userID participates in.
func (r *MatchRepository) FindMatchedForUser(ctx context.Context, matchID, userID uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).
		Where("id = ? AND (initiator_id = ? OR receiver_id = ?) AND status = ?", matchID, userID, userID, db.MatchMatched).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Discover returns users that are not userID and share no edge with userID
// in either direction, capped at limit.
func (r *MatchRepository) Discover(ctx context.Context, userID uint64, limit int) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("users.id <> ?", userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM matches m
			WHERE (m.initiator_id = ? AND m.receiver_id = users.id)
			   OR (m.receiver_id = ? AND m.initiator_id = users.id)
		)`, userID, userID).
		Order("users.id").
		Limit(limit).
		Find(&users).Error
	return users, err
}
