package models

import "time"

// Script is the content item a discussion may be attached to. The sensitive
// flag partitions scripts (and their discussions) between installation modes.
type Script struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Sensitive bool      `gorm:"not null;default:false" json:"sensitive"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
