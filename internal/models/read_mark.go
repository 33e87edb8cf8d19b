package models

import "time"

// ReadMark asserts that a user has seen a discussion's activity up to ReadAt.
// One row per (user, discussion); upserted on every view, never deleted.
type ReadMark struct {
	UserID       uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	DiscussionID uint      `gorm:"primaryKey;autoIncrement:false" json:"discussion_id"`
	ReadAt       time.Time `gorm:"not null" json:"read_at"`
}

// DiscussionSubscription records a user's interest in a discussion's activity.
type DiscussionSubscription struct {
	UserID       uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	DiscussionID uint      `gorm:"primaryKey;autoIncrement:false" json:"discussion_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ActivitySeen reports whether activity at lastActivity counts as read given
// an explicit read mark time and the user's global watermark, either of which
// may be absent. A discussion is read when either the mark or the watermark is
// at or past its last activity; the watermark is a floor and never expires an
// explicit mark. This is the single read/unread comparison shared by the
// listing filter and mark-all-read.
func ActivitySeen(lastActivity time.Time, markReadAt, watermark *time.Time) bool {
	if markReadAt != nil && !markReadAt.Before(lastActivity) {
		return true
	}
	if watermark != nil && !watermark.Before(lastActivity) {
		return true
	}
	return false
}
