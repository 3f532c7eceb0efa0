package board

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"echoboard/internal/events"
	"echoboard/internal/models"
	"echoboard/internal/purify"
)

// newTestService opens a fresh in-memory database per test. A single pooled
// connection keeps the memory database alive and serializes concurrent
// transactions the way postgres row locks would.
func newTestService(t *testing.T) (*Service, *events.Hub, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Post{}, &models.PostStats{}, &models.Vote{},
		&models.Report{}, &models.Ban{}, &models.AdminLog{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	hub := events.NewHub()
	svc := NewService(db, hub, purify.Thresholds{MinVotes: 10, PurifyRatio: 0.6, MeterRatio: 0.4})
	return svc, hub, db
}

func mustCreatePost(t *testing.T, svc *Service, content string) models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), content, "author-fp", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// seedVotes applies ups upvotes and downs downvotes from distinct
// fingerprints.
func seedVotes(t *testing.T, svc *Service, postID uint, ups, downs int) {
	t.Helper()
	for i := 0; i < ups; i++ {
		if _, err := svc.ApplyVote(context.Background(), postID, fmt.Sprintf("up-fp-%d", i), 1); err != nil {
			t.Fatalf("seed upvote %d: %v", i, err)
		}
	}
	for i := 0; i < downs; i++ {
		if _, err := svc.ApplyVote(context.Background(), postID, fmt.Sprintf("down-fp-%d", i), -1); err != nil {
			t.Fatalf("seed downvote %d: %v", i, err)
		}
	}
}

func currentStats(t *testing.T, db *gorm.DB, postID uint) models.PostStats {
	t.Helper()
	var stats models.PostStats
	if err := db.Where("post_id = ?", postID).First(&stats).Error; err != nil {
		t.Fatalf("load stats for post %d: %v", postID, err)
	}
	return stats
}
