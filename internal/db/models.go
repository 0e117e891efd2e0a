package db

import (
	"time"

	"gorm.io/gorm"
)

// User is the credential store row. PasswordHash never leaves the server.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Program      string    `gorm:"size:100;not null"`
	Term         int       `gorm:"not null"`
	Interests    []string  `gorm:"type:text;serializer:json"`
	Bio          string    `gorm:"type:text"`
	Avatar       string    `gorm:"size:500"`
	Verified     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

type MatchStatus string

const (
	MatchPending MatchStatus = "pending"
	MatchMatched MatchStatus = "matched"
)

// Match is a directed like from Initiator to Receiver.
//
// PairLow/PairHigh hold the two user ids in ascending order and carry the
// unique index idx_match_pair, so a pair can have one row regardless of who
// liked first. Rejection deletes the row.
type Match struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	InitiatorID uint64      `gorm:"not null;index"`
	ReceiverID  uint64      `gorm:"not null;index:idx_receiver_status,priority:1"`
	PairLow     uint64      `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	PairHigh    uint64      `gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`
	Status      MatchStatus `gorm:"size:16;not null;default:pending;index:idx_receiver_status,priority:2"`
	MatchedAt   *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Initiator User `gorm:"foreignKey:InitiatorID"`
	Receiver  User `gorm:"foreignKey:ReceiverID"`
}

// OrderedPair returns a and b in ascending order.
func OrderedPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// BeforeSave keeps the canonical pair in sync with the participants.
func (m *Match) BeforeSave(*gorm.DB) error {
	if m.InitiatorID != 0 || m.ReceiverID != 0 {
		m.PairLow, m.PairHigh = OrderedPair(m.InitiatorID, m.ReceiverID)
	}
	return nil
}

// HasUser reports whether userID is one of the two participants.
func (m *Match) HasUser(userID uint64) bool {
	return m.InitiatorID == userID || m.ReceiverID == userID
}

// OtherUserID returns the participant that is not userID.
func (m *Match) OtherUserID(userID uint64) (uint64, bool) {
	switch userID {
	case m.InitiatorID:
		return m.ReceiverID, true
	case m.ReceiverID:
		return m.InitiatorID, true
	}
	return 0, false
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

type Message struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64      `gorm:"not null;index:idx_match_created,priority:1"`
	SenderID  uint64      `gorm:"not null;index"`
	Content   string      `gorm:"type:text;not null"`
	Type      MessageType `gorm:"size:16;not null;default:text"`
	IsRead    bool        `gorm:"not null;default:false"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index:idx_match_created,priority:2"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`

	Sender User `gorm:"foreignKey:SenderID"`
}

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

type PostType string

const (
	PostText  PostType = "text"
	PostImage PostType = "image"
)

// Post carries denormalized counters. LikesCount and CommentsCount are only
// changed by atomic increments in the same transaction as the child rows.
type Post struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	UserID        uint64    `gorm:"not null;index"`
	Content       string    `gorm:"type:text;not null"`
	ImageURL      string    `gorm:"size:500"`
	PostType      PostType  `gorm:"size:16;not null;default:text"`
	Privacy       Privacy   `gorm:"size:16;not null;default:public"`
	LikesCount    int64     `gorm:"not null;default:0"`
	CommentsCount int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	Author User `gorm:"foreignKey:UserID"`
}

type PostLike struct {
	PostID    uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Comment threads are one level deep: ParentID, when set, points at a
// top-level comment of the same post.
type Comment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PostID    uint64    `gorm:"not null;index"`
	UserID    uint64    `gorm:"not null;index"`
	ParentID  *uint64   `gorm:"index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Author User `gorm:"foreignKey:UserID"`
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Match{}, &Message{}, &Post{}, &PostLike{}, &Comment{}}
}
