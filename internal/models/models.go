package models

import (
	"time"
)

// Post represents a single anonymous echo. Content is a pointer: NULL
// content means the post has faded (expired): it stays addressable but
// accepts no new votes or reports until the cleanup job removes the row.
type Post struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	Content           *string   `json:"content"`
	AuthorFingerprint string    `gorm:"not null;index" json:"-"`
	ParentID          *uint     `gorm:"index" json:"parentId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`

	Stats PostStats `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"stats"`
}

// Faded reports whether the post's content has been wiped by the expiry job.
func (p *Post) Faded() bool {
	return p.Content == nil
}

// PostStats is the 1:1 tally row for a post. Upvotes and Downvotes change
// only inside the vote transaction, in lockstep with the Vote rows;
// ReplyCount is bumped by the parent when a reply is created and never
// decremented.
type PostStats struct {
	PostID     uint `gorm:"primarykey" json:"postId"`
	Upvotes    int  `gorm:"not null;default:0" json:"upvotes"`
	Downvotes  int  `gorm:"not null;default:0" json:"downvotes"`
	ReplyCount int  `gorm:"not null;default:0" json:"replyCount"`
}

// Vote is the one live vote an identity holds on a post. Value is +1 or -1.
// Repeating the same vote deletes the row (toggle-off); voting the other way
// updates Value in place.
type Vote struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	PostID      uint      `gorm:"not null;uniqueIndex:idx_post_fingerprint" json:"postId"`
	Fingerprint string    `gorm:"not null;uniqueIndex:idx_post_fingerprint" json:"-"`
	Value       int       `gorm:"not null" json:"value"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Report flags a post for moderator review, at most once per fingerprint.
type Report struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	PostID      uint      `gorm:"not null;uniqueIndex:idx_report_post_fingerprint" json:"postId"`
	Fingerprint string    `gorm:"not null;uniqueIndex:idx_report_post_fingerprint" json:"-"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ban blocks a fingerprint from posting and voting. A nil ExpiresAt is a
// permanent ban.
type Ban struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Fingerprint string     `gorm:"not null;index" json:"-"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AdminLog records every moderator action.
type AdminLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Action    string    `gorm:"not null" json:"action"`
	PostID    *uint     `json:"postId,omitempty"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}
