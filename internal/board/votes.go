package board

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"echoboard/internal/events"
	"echoboard/internal/models"
	"echoboard/internal/purify"
)

// lockForUpdate takes a row lock on postgres so concurrent votes on the
// same post serialize inside their transactions. SQLite has no FOR UPDATE
// syntax and a single writer, so the clause is skipped there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// VoteResult is what ApplyVote hands back to the routing layer. When
// Purified is true the post is already gone and Stats holds the final
// tallies that crossed the threshold.
type VoteResult struct {
	Stats    models.PostStats `json:"stats"`
	Meter    purify.Decision  `json:"meter"`
	Purified bool             `json:"purified"`
}

// ApplyVote applies one identity's vote to a post with toggle semantics:
// first vote creates the row, a repeat of the same vote removes it, the
// opposite vote flips it in place. Tally deltas, the vote row mutation and
// the policy evaluation happen in one transaction; the post row is locked
// FOR UPDATE so concurrent votes on the same post serialize and never read
// stale tallies.
//
// After the transaction commits, a purify decision cascades into a physical
// delete and a delete_post publish; otherwise an update_vote publish carries
// the fresh tallies. The window between the tally commit and the delete is
// observable and accepted.
func (s *Service) ApplyVote(ctx context.Context, postID uint, fingerprint string, value int) (VoteResult, error) {
	if value != 1 && value != -1 {
		return VoteResult{}, ErrInvalidVote
	}
	if fingerprint == "" {
		return VoteResult{}, ErrMissingFingerprint
	}
	if err := s.checkBan(ctx, fingerprint); err != nil {
		return VoteResult{}, err
	}

	var (
		stats    models.PostStats
		decision purify.Decision
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := lockForUpdate(tx).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGone
			}
			return err
		}
		if post.Faded() {
			return ErrGone
		}

		var dUp, dDown int
		var existing models.Vote
		err := tx.Where("post_id = ? AND fingerprint = ?", postID, fingerprint).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{PostID: postID, Fingerprint: fingerprint, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if value == 1 {
				dUp = 1
			} else {
				dDown = 1
			}
		case err != nil:
			return err
		case existing.Value == value:
			// Toggle off: repeating the same vote withdraws it.
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if value == 1 {
				dUp = -1
			} else {
				dDown = -1
			}
		default:
			// Flip: move exactly one unit across the columns.
			if err := tx.Model(&existing).Update("value", value).Error; err != nil {
				return err
			}
			if value == 1 {
				dUp, dDown = 1, -1
			} else {
				dUp, dDown = -1, 1
			}
		}

		if err := tx.Model(&models.PostStats{}).Where("post_id = ?", postID).Updates(map[string]any{
			"upvotes":   gorm.Expr("upvotes + ?", dUp),
			"downvotes": gorm.Expr("downvotes + ?", dDown),
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).First(&stats).Error; err != nil {
			return err
		}

		decision = purify.Evaluate(stats.Upvotes, stats.Downvotes, s.thresholds)
		return nil
	})
	if err != nil {
		var banned *BannedError
		if errors.Is(err, ErrGone) || errors.As(err, &banned) {
			return VoteResult{}, err
		}
		// A storage failure here is almost always a concurrent delete racing
		// the vote; surface it as a faded echo, not a raw storage error.
		log.Printf("vote transaction on post %d failed: %v", postID, err)
		return VoteResult{}, ErrGone
	}

	if decision.ShouldPurify {
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return purge(tx, postID)
		}); err != nil {
			log.Printf("purification of post %d failed: %v", postID, err)
		}
		s.hub.Publish(events.KindDeletePost, PostDeleted{PostID: postID})
		return VoteResult{Stats: stats, Meter: decision, Purified: true}, nil
	}

	s.hub.Publish(events.KindUpdateVote, VoteUpdate{PostID: postID, Stats: stats, Meter: decision})
	return VoteResult{Stats: stats, Meter: decision, Purified: false}, nil
}
