package board

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"echoboard/internal/codename"
	"echoboard/internal/models"
)

// ReportPost flags a post for moderator review. One report per fingerprint
// per post; repeating a report is a silent no-op. Faded and absent posts
// reject reports the same way they reject votes.
func (s *Service) ReportPost(ctx context.Context, postID uint, fingerprint, reason string) error {
	if fingerprint == "" {
		return ErrMissingFingerprint
	}
	if err := s.checkBan(ctx, fingerprint); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if post.Faded() {
			return ErrGone
		}

		report := models.Report{PostID: postID, Fingerprint: fingerprint, Reason: reason}
		return tx.Where("post_id = ? AND fingerprint = ?", postID, fingerprint).
			FirstOrCreate(&report).Error
	})
}

// ReportView is a report as moderators see it: the reporter appears only as
// a derived codename, never as the raw fingerprint.
type ReportView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"postId"`
	Reporter  string    `json:"reporter"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListReports returns open reports, newest first, with reporter codenames.
func (s *Service) ListReports(ctx context.Context) ([]ReportView, error) {
	var reports []models.Report
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}

	views := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, ReportView{
			ID:        r.ID,
			PostID:    r.PostID,
			Reporter:  codename.FromFingerprint(r.Fingerprint),
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	return views, nil
}

// BanFingerprint blocks a fingerprint from posting, voting and reporting.
// A nil expiry is permanent. The action lands in the admin log with the
// target's codename, not the fingerprint itself.
func (s *Service) BanFingerprint(ctx context.Context, fingerprint, reason string, expiresAt *time.Time) error {
	if fingerprint == "" {
		return ErrMissingFingerprint
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ban := models.Ban{Fingerprint: fingerprint, Reason: reason, ExpiresAt: expiresAt}
		if err := tx.Create(&ban).Error; err != nil {
			return err
		}
		entry := models.AdminLog{Action: "ban", Detail: codename.FromFingerprint(fingerprint) + ": " + reason}
		return tx.Create(&entry).Error
	})
}
