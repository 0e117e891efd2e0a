// Package dto holds the JSON shapes returned by the HTTP API and the relay.
// Models never leave the server directly, so password hashes and internal
// columns stay out of responses.
package dto

import (
	"time"

	"github.com/oggyb/campus-match/internal/db"
)

// PublicUser is what other users may see of a profile.
type PublicUser struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Program   string   `json:"program"`
	Term      int      `json:"term"`
	Interests []string `json:"interests"`
	Bio       string   `json:"bio"`
	Avatar    string   `json:"avatar"`
}

// Profile is the caller's own record.
type Profile struct {
	PublicUser
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// Author is the compact identity attached to messages, posts and comments.
type Author struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func NewPublicUser(u *db.User) PublicUser {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Program:   u.Program,
		Term:      u.Term,
		Interests: interests,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
	}
}

func NewProfile(u *db.User) Profile {
	return Profile{
		PublicUser: NewPublicUser(u),
		Email:      u.Email,
		Verified:   u.Verified,
		CreatedAt:  u.CreatedAt,
	}
}

func NewAuthor(u *db.User) Author {
	return Author{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func NewPublicUsers(users []db.User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, NewPublicUser(&users[i]))
	}
	return out
}

// Session is returned by register and login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// PendingView is a like awaiting the caller's decision.
type PendingView struct {
	MatchID uint64     `json:"match_id"`
	User    PublicUser `json:"user"`
	LikedAt time.Time  `json:"liked_at"`
}

// MatchView is a resolved match seen from one participant.
type MatchView struct {
	MatchID   uint64     `json:"match_id"`
	User      PublicUser `json:"user"`
	MatchedAt *time.Time `json:"matched_at"`
}

// NewMatchView resolves the other participant of m relative to viewerID.
// Both associations must be preloaded.
func NewMatchView(m *db.Match, viewerID uint64) MatchView {
	other := &m.Initiator
	if m.InitiatorID == viewerID {
		other = &m.Receiver
	}
	return MatchView{MatchID: m.ID, User: NewPublicUser(other), MatchedAt: m.MatchedAt}
}

type MessageView struct {
	ID        uint64    `json:"id"`
	MatchID   uint64    `json:"match_id"`
	SenderID  uint64    `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"message_type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}

// NewMessageView expects Sender preloaded.
func NewMessageView(m *db.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		MatchID:   m.MatchID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      string(m.Type),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
		Author:    NewAuthor(&m.Sender),
	}
}

func NewMessageViews(msgs []db.Message) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessageView(&msgs[i]))
	}
	return out
}

// LastMessage summarizes the newest message of a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  uint64    `json:"sender_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationView struct {
	MatchID     uint64       `json:"match_id"`
	User        PublicUser   `json:"user"`
	LastMessage *LastMessage `json:"last_message"`
	UnreadCount int64        `json:"unread_count"`
	MatchedAt   *time.Time   `json:"matched_at"`
}

// LastActivity is the newest message time, or the match time when the
// conversation is empty.
func (c ConversationView) LastActivity() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	if c.MatchedAt != nil {
		return *c.MatchedAt
	}
	return time.Time{}
}

type PostView struct {
	ID            uint64    `json:"id"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"image_url,omitempty"`
	PostType      string    `json:"post_type"`
	Privacy       string    `json:"privacy"`
	LikesCount    int64     `json:"likes_count"`
	CommentsCount int64     `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	Author        Author    `json:"author"`
}

// NewPostView expects Author preloaded.
func NewPostView(p *db.Post) PostView {
	return PostView{
		ID:            p.ID,
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		PostType:      string(p.PostType),
		Privacy:       string(p.Privacy),
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		Author:        NewAuthor(&p.Author),
	}
}

// FeedPage is one page of the feed plus the cursor of the next one.
type FeedPage struct {
	Posts     []PostView `json:"posts"`
	NextToken *string    `json:"next_token"`
}

type CommentView struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	ParentID  *uint64   `json:"parent_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
}

// NewCommentView expects Author preloaded.
func NewCommentView(c *db.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Author:    NewAuthor(&c.Author),
	}
}

func NewCommentViews(comments []db.Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentView(&comments[i]))
	}
	return out
}
