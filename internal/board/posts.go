package board

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"echoboard/internal/events"
	"echoboard/internal/models"
)

// CreatePost stores a new echo (top-level, or a reply when parentID is set)
// and publishes a new_post event carrying the post with its zeroed stats
// row. A reply requires a live parent and bumps its reply count in the same
// transaction.
func (s *Service) CreatePost(ctx context.Context, content, fingerprint string, parentID *uint) (models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Post{}, ErrEmptyContent
	}
	if len(content) > maxContentLength {
		return models.Post{}, ErrContentTooLong
	}
	if fingerprint == "" {
		return models.Post{}, ErrMissingFingerprint
	}
	if err := s.checkBan(ctx, fingerprint); err != nil {
		return models.Post{}, err
	}

	post := models.Post{Content: &content, AuthorFingerprint: fingerprint, ParentID: parentID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			var parent models.Post
			if err := tx.First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if parent.Faded() {
				return ErrGone
			}
			if err := tx.Model(&models.PostStats{}).Where("post_id = ?", *parentID).
				Update("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		post.Stats = models.PostStats{PostID: post.ID}
		return tx.Create(&post.Stats).Error
	})
	if err != nil {
		return models.Post{}, err
	}

	s.hub.Publish(events.KindNewPost, post)
	return post, nil
}

// ListPosts returns live top-level echoes, newest first. Faded posts stay
// addressable by ID but never appear in listings.
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("Stats").
		Where("content IS NOT NULL AND parent_id IS NULL").
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// ListTrending returns the top live echoes by net score.
func (s *Service) ListTrending(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("Stats").
		Joins("JOIN post_stats ON post_stats.post_id = posts.id").
		Where("posts.content IS NOT NULL AND posts.parent_id IS NULL").
		Order("(post_stats.upvotes - post_stats.downvotes) DESC, posts.created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// GetPost fetches one post with its stats and live replies. A faded post is
// still returned (content null) so clients can render its tombstone.
func (s *Service) GetPost(ctx context.Context, id uint) (models.Post, []models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Stats").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, nil, ErrNotFound
		}
		return models.Post{}, nil, err
	}

	var replies []models.Post
	err := s.db.WithContext(ctx).Preload("Stats").
		Where("parent_id = ? AND content IS NOT NULL", id).
		Order("created_at ASC").
		Find(&replies).Error
	return post, replies, err
}

// ModeratorDelete removes a post and its dependent rows on a moderator's
// authority, records the action in the admin log, and publishes
// delete_post. Purification deletes skip the log: they are audit-free by
// design.
func (s *Service) ModeratorDelete(ctx context.Context, postID uint, detail string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := purge(tx, postID); err != nil {
			return err
		}
		entry := models.AdminLog{Action: "delete_post", PostID: &postID, Detail: detail}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return err
	}

	s.hub.Publish(events.KindDeletePost, PostDeleted{PostID: postID})
	return nil
}

// FadeExpired wipes the content of every post older than cutoff, turning
// them into addressable tombstones. The scheduled job that decides the
// cutoff lives outside this process; this is only the operation it calls.
func (s *Service) FadeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("created_at < ? AND content IS NOT NULL", cutoff).
		Update("content", nil)
	return res.RowsAffected, res.Error
}
