package models

import (
	"time"

	"gorm.io/datatypes"
)

// ModerationState tracks the moderation lifecycle of a discussion.
type ModerationState string

// Moderation states. Removed discussions are soft-deleted and never listed.
const (
	ModerationVisible     ModerationState = "visible"
	ModerationUnderReview ModerationState = "under_review"
	ModerationRemoved     ModerationState = "removed"
)

// ContentMode selects which sensitivity partition of script-bound discussions
// an installation serves.
type ContentMode string

// Content partition modes.
const (
	ContentModeAll          ContentMode = "all"
	ContentModeNonSensitive ContentMode = "non-sensitive"
	ContentModeSensitive    ContentMode = "sensitive"
)

// DiscussionCategory groups discussions. Scriptless marks the pseudo category
// for discussions not tied to any script.
type DiscussionCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Key        string    `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Scriptless bool      `gorm:"not null;default:false" json:"scriptless"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Discussion represents a top-level forum thread, optionally attached to a
// script. LastActivityAt is bumped whenever a comment is posted.
type Discussion struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	PosterID        uint              `gorm:"index;not null" json:"poster_id"`
	ScriptID        *uint             `gorm:"index" json:"script_id,omitempty"`
	CategoryID      uint              `gorm:"index;not null" json:"category_id"`
	Title           string            `gorm:"size:255;not null" json:"title"`
	ModerationState ModerationState   `gorm:"size:32;not null;default:visible;index" json:"moderation_state"`
	LastActivityAt  time.Time         `gorm:"index;not null" json:"last_activity_at"`
	Metadata        datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Comments        []Comment         `json:"comments,omitempty"`
}

// Comment represents a reply within a discussion.
type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"index;not null" json:"discussion_id"`
	AuthorID     uint      `gorm:"index;not null" json:"author_id"`
	Body         string    `gorm:"type:text" json:"body"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
