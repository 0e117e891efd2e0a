package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/utils/pagination"
)

// FeedRepository stores posts, post likes and comments.
//
// likes_count and comments_count are denormalized. Every write that adds or
// removes a child row adjusts the counter with an in-place
// "x = x + n" update inside the same transaction, never read-then-write.
type FeedRepository struct {
	db *gorm.DB
}

// NewFeedRepository creates a new repository bound to the given DB connection.
func NewFeedRepository(database *gorm.DB) *FeedRepository {
	return &FeedRepository{db: database}
}

// visibleTo restricts posts to what viewerID may see: public posts, own
// posts, and "friends" posts of users matched with the viewer.
func visibleTo(viewerID uint64) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(`(posts.privacy = ? OR posts.user_id = ? OR (posts.privacy = ? AND EXISTS (
			SELECT 1 FROM matches m
			WHERE m.status = ?
			  AND ((m.initiator_id = ? AND m.receiver_id = posts.user_id)
			    OR (m.receiver_id = ? AND m.initiator_id = posts.user_id))
		)))`, db.PrivacyPublic, viewerID, db.PrivacyFriends, db.MatchMatched, viewerID, viewerID)
	}
}

// CreatePost inserts p and reloads it with its author.
func (r *FeedRepository) CreatePost(ctx context.Context, p *db.Post) (*db.Post, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return nil, err
	}
	return r.findPost(ctx, p.ID)
}

func (r *FeedRepository) findPost(ctx context.Context, id uint64) (*db.Post, error) {
	var p db.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindVisiblePost returns gorm.ErrRecordNotFound for missing posts and for
// posts the viewer may not see.
func (r *FeedRepository) FindVisiblePost(ctx context.Context, postID, viewerID uint64) (*db.Post, error) {
	var p db.Post
	err := r.db.WithContext(ctx).
		Scopes(visibleTo(viewerID)).
		Preload("Author").
		Where("posts.id = ?", postID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListVisiblePosts returns posts visible to viewerID, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//   - Returns the next token when more rows exist.
func (r *FeedRepository) ListVisiblePosts(
	ctx context.Context,
	viewerID uint64,
	paginationToken *string,
	limit int,
) ([]db.Post, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Scopes(visibleTo(viewerID)).
		Preload("Author").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var posts []db.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(posts) > limit {
		last := posts[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		posts = posts[:limit]
	}

	return posts, nextToken, nil
}

// DeletePost removes a post owned by authorID together with its comments
// and likes. Returns false when no such post exists.
func (r *FeedRepository) DeletePost(ctx context.Context, postID, authorID uint64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", postID, authorID).Delete(&db.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true

		if err := tx.Where("post_id = ?", postID).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&db.PostLike{}).Error
	})
	return deleted, err
}

// LikePost records userID's like and bumps likes_count.
// A second like by the same user fails on the (post_id, user_id) key.
func (r *FeedRepository) LikePost(ctx context.Context, postID, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&db.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		var err error
		count, err = adjustCounter(tx, postID, "likes_count", 1)
		return err
	})
	return count, err
}

// UnlikePost removes userID's like. Returns false when there was none.
func (r *FeedRepository) UnlikePost(ctx context.Context, postID, userID uint64) (bool, int64, error) {
	var (
		removed bool
		count   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&db.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		var err error
		count, err = adjustCounter(tx, postID, "likes_count", -res.RowsAffected)
		return err
	})
	return removed, count, err
}

// ListComments returns a post's comments in creation order.
func (r *FeedRepository) ListComments(ctx context.Context, postID uint64) ([]db.Comment, error) {
	var comments []db.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// FindComment returns gorm.ErrRecordNotFound when missing.
func (r *FeedRepository) FindComment(ctx context.Context, id uint64) (*db.Comment, error) {
	var c db.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment inserts c and bumps the post's comments_count in one
// transaction, then reloads the comment with its author.
func (r *FeedRepository) CreateComment(ctx context.Context, c *db.Comment) (*db.Comment, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		_, err := adjustCounter(tx, c.PostID, "comments_count", 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	var out db.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&out, c.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes a comment owned by authorID plus its replies and
// lowers comments_count by the number of rows removed.
// Returns gorm.ErrRecordNotFound when the author owns no such comment.
func (r *FeedRepository) DeleteComment(ctx context.Context, commentID, authorID uint64) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c db.Comment
		if err := tx.Where("id = ? AND user_id = ?", commentID, authorID).First(&c).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? OR parent_id = ?", c.ID, c.ID).Delete(&db.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		_, err := adjustCounter(tx, c.PostID, "comments_count", -removed)
		return err
	})
	return removed, err
}

// CountComments counts live comment rows of a post.
func (r *FeedRepository) CountComments(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// adjustCounter applies column = column + delta and returns the new value.
func adjustCounter(tx *gorm.DB, postID uint64, column string, delta int64) (int64, error) {
	res := tx.Model(&db.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var value int64
	if err := tx.Model(&db.Post{}).Select(column).Where("id = ?", postID).Row().Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
