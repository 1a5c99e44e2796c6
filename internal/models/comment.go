package models

import (
	"time"
)

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Cid         string    `gorm:"uniqueIndex;size:8;not null" json:"cid"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	Post        Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID      *uint     `gorm:"index" json:"user_id"` // NULL once the author account is deleted
	User        *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user"`
	ParentID    *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent      *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"parent"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool      `gorm:"default:false" json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	// No UpdatedAt: comments are never edited by this core
}
