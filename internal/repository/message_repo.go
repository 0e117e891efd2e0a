package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
)

// MessageRepository persists chat messages of matched edges.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts m and reloads it with its sender, which is what gets
// broadcast to the room.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) (*db.Message, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}

	var out db.Message
	if err := r.db.WithContext(ctx).Preload("Sender").First(&out, m.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByMatch returns the history of a match in insertion order.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID uint64) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead flips unread messages of matchID that readerID did not author.
// Returns how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, matchID, readerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id <> ? AND is_read = ?", matchID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// LastMessages returns the latest message of each match, keyed by match id.
func (r *MessageRepository) LastMessages(ctx context.Context, matchIDs []uint64) (map[uint64]db.Message, error) {
	out := make(map[uint64]db.Message, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	latest := r.db.Model(&db.Message{}).
		Select("MAX(id)").
		Where("match_id IN ?", matchIDs).
		Group("match_id")

	var msgs []db.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.MatchID] = m
	}
	return out, nil
}

type unreadRow struct {
	MatchID uint64
	Unread  int64
}

// UnreadCounts returns, per match, how many messages readerID has not read.
func (r *MessageRepository) UnreadCounts(ctx context.Context, matchIDs []uint64, readerID uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Select("match_id, COUNT(*) AS unread").
		Where("match_id IN ? AND sender_id <> ? AND is_read = ?", matchIDs, readerID, false).
		Group("match_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.MatchID] = row.Unread
	}
	return out, nil
}
