// Package board implements the content-lifecycle engine: post creation,
// the vote ledger transaction, the purification cascade, reports and bans.
// Every successful mutation publishes an event on the hub after its
// transaction commits.
package board

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"echoboard/internal/events"
	"echoboard/internal/models"
	"echoboard/internal/purify"
)

const maxContentLength = 1000

// Service owns all durable-tally mutations. No other code path may touch
// vote or stats rows directly.
type Service struct {
	db         *gorm.DB
	hub        *events.Hub
	thresholds purify.Thresholds
}

func NewService(db *gorm.DB, hub *events.Hub, thresholds purify.Thresholds) *Service {
	return &Service{db: db, hub: hub, thresholds: thresholds}
}

// VoteUpdate is the update_vote event payload and the ApplyVote result:
// fresh tallies plus the policy decision computed from them.
type VoteUpdate struct {
	PostID uint             `json:"postId"`
	Stats  models.PostStats `json:"stats"`
	Meter  purify.Decision  `json:"meter"`
}

// PostDeleted is the delete_post event payload.
type PostDeleted struct {
	PostID uint `json:"postId"`
}

// checkBan fails with *BannedError when the fingerprint has a ban with no
// expiry or an expiry still in the future.
func (s *Service) checkBan(ctx context.Context, fingerprint string) error {
	var ban models.Ban
	err := s.db.WithContext(ctx).
		Where("fingerprint = ? AND (expires_at IS NULL OR expires_at > ?)", fingerprint, time.Now()).
		Order("expires_at IS NOT NULL, expires_at DESC").
		First(&ban).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &BannedError{ExpiresAt: ban.ExpiresAt}
}

// purge physically deletes a post and its dependent vote, report and stats
// rows. Replies keep their rows; only direct dependents cascade.
func purge(tx *gorm.DB, postID uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Report{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostStats{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Post{}, postID).Error
}
