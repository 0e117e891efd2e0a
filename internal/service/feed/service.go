package feed

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

const (
	maxPostLen     = 500
	maxCommentLen  = 500
	maxImageURLLen = 500
	defaultLimit   = 50
)

// CreatePostInput is the body of POST /feed/posts.
type CreatePostInput struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	Privacy  string `json:"privacy"`
}

// CreateCommentInput is the body of POST /feed/posts/{postId}/comments.
type CreateCommentInput struct {
	Content  string  `json:"content"`
	ParentID *uint64 `json:"parent_id"`
}

// LikeResult carries the post's counter after a like or unlike.
type LikeResult struct {
	PostID     uint64 `json:"post_id"`
	Liked      bool   `json:"liked"`
	LikesCount int64  `json:"likes_count"`
}

// DeleteCommentResult reports how many comment rows were removed
// (the comment plus its replies).
type DeleteCommentResult struct {
	Deleted int64 `json:"deleted"`
}

type Service struct {
	appCtx *app.AppContext
	repo   *repository.FeedRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repo:   repository.NewFeedRepository(appCtx.DB),
	}
}

func (s *Service) limit() int {
	if n := s.appCtx.Config.App.FeedLimit; n > 0 {
		return n
	}
	return defaultLimit
}

// visiblePost loads postID if viewerID may see it. Hidden posts read as
// missing.
func (s *Service) visiblePost(ctx context.Context, postID, viewerID uint64) (*db.Post, error) {
	p, err := s.repo.FindVisiblePost(ctx, postID, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("post not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return p, nil
}

// List returns one page of the viewer's feed.
//
// Behavior:
//   - Newest first; public posts, own posts, and friends-only posts of
//     matched users.
//   - token is the opaque next_token of the previous page; empty starts over.
//   - A malformed token is a validation error.
func (s *Service) List(ctx context.Context, viewerID uint64, token string) (*dto.FeedPage, error) {
	var tok *string
	if token != "" {
		tok = &token
	}
	posts, next, err := s.repo.ListVisiblePosts(ctx, viewerID, tok, s.limit())
	if errors.Is(err, pagination.ErrInvalidToken) {
		return nil, svcErr.Validation("invalid pagination token")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views := make([]dto.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, dto.NewPostView(&posts[i]))
	}
	return &dto.FeedPage{Posts: views, NextToken: next}, nil
}

func parsePrivacy(raw string) (db.Privacy, error) {
	switch p := db.Privacy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return db.PrivacyPublic, nil
	case db.PrivacyPublic, db.PrivacyFriends, db.PrivacyPrivate:
		return p, nil
	}
	return "", svcErr.Validation("privacy must be one of public, friends, private")
}

func validImageURL(raw string) bool {
	if len(raw) > maxImageURLLen {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Create publishes a post. A post with an image URL is an image post.
func (s *Service) Create(ctx context.Context, authorID uint64, in CreatePostInput) (*dto.PostView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, svcErr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxPostLen {
		return nil, svcErr.Validationf("content must be at most %d characters", maxPostLen)
	}
	privacy, err := parsePrivacy(in.Privacy)
	if err != nil {
		return nil, err
	}

	post := &db.Post{
		UserID:   authorID,
		Content:  content,
		PostType: db.PostText,
		Privacy:  privacy,
	}
	if img := strings.TrimSpace(in.ImageURL); img != "" {
		if !validImageURL(img) {
			return nil, svcErr.Validation("image_url must be an http(s) URL")
		}
		post.ImageURL = img
		post.PostType = db.PostImage
	}

	created, err := s.repo.CreatePost(ctx, post)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	v := dto.NewPostView(created)
	return &v, nil
}

// Delete removes the author's own post with its likes and comments.
// Someone else's post reads as missing.
func (s *Service) Delete(ctx context.Context, authorID, postID uint64) error {
	ok, err := s.repo.DeletePost(ctx, postID, authorID)
	if err != nil {
		return svcErr.Map(err)
	}
	if !ok {
		return svcErr.NotFound("post not found")
	}
	return nil
}

// Like records a like on a visible post. Liking twice is a conflict.
func (s *Service) Like(ctx context.Context, userID, postID uint64) (*LikeResult, error) {
	if _, err := s.visiblePost(ctx, postID, userID); err != nil {
		return nil, err
	}
	count, err := s.repo.LikePost(ctx, postID, userID)
	if err != nil {
		if svcErr.IsDuplicate(err) {
			return nil, svcErr.Conflict("post already liked")
		}
		return nil, svcErr.Map(err)
	}
	return &LikeResult{PostID: postID, Liked: true, LikesCount: count}, nil
}

// Unlike removes the caller's like; NotFound when there was none.
func (s *Service) Unlike(ctx context.Context, userID, postID uint64) (*LikeResult, error) {
	removed, count, err := s.repo.UnlikePost(ctx, postID, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !removed {
		return nil, svcErr.NotFound("like not found")
	}
	return &LikeResult{PostID: postID, Liked: false, LikesCount: count}, nil
}

// Comments lists a visible post's comments, oldest first.
func (s *Service) Comments(ctx context.Context, viewerID, postID uint64) ([]dto.CommentView, error) {
	if _, err := s.visiblePost(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return dto.NewCommentViews(comments), nil
}

// Comment adds a comment or a reply to a visible post.
//
// Behavior:
//   - Content is trimmed and must be 1..500 characters.
//   - A parent must be a top-level comment of the same post, so threads are
//     one level deep.
func (s *Service) Comment(ctx context.Context, authorID, postID uint64, in CreateCommentInput) (*dto.CommentView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, svcErr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, svcErr.Validationf("content must be at most %d characters", maxCommentLen)
	}
	if _, err := s.visiblePost(ctx, postID, authorID); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.repo.FindComment(ctx, *in.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("parent comment not found")
		}
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if parent.PostID != postID {
			return nil, svcErr.Validation("parent comment belongs to another post")
		}
		if parent.ParentID != nil {
			return nil, svcErr.Validation("replies cannot be nested")
		}
	}

	c, err := s.repo.CreateComment(ctx, &db.Comment{
		PostID:   postID,
		UserID:   authorID,
		ParentID: in.ParentID,
		Content:  content,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	v := dto.NewCommentView(c)
	return &v, nil
}

// DeleteComment removes the author's own comment and its replies.
func (s *Service) DeleteComment(ctx context.Context, authorID, commentID uint64) (*DeleteCommentResult, error) {
	n, err := s.repo.DeleteComment(ctx, commentID, authorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("comment not found")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &DeleteCommentResult{Deleted: n}, nil
}
