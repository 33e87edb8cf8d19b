package models

import "time"

// User represents a registered forum account.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Moderator bool   `gorm:"not null;default:false" json:"moderator"`

	// ReadSinceWatermark marks every discussion whose last activity is at or
	// before this instant as read for the user, independent of explicit read
	// marks. Updated only by an unfiltered mark-all-read.
	ReadSinceWatermark *time.Time `json:"read_since_watermark,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
