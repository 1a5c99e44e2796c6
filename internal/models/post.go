package models

import (
	"time"
)

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Pid         string    `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	ChannelID   uint      `gorm:"not null;index;default:1" json:"channel_id"`
	Channel     Channel   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"channel"`
	UserID      *uint     `gorm:"index" json:"user_id"` // NULL once the author account is deleted
	User        *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user"`
	Title       string    `gorm:"not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	IsAnonymous bool      `gorm:"default:false" json:"is_anonymous"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	Rating       int `gorm:"-" json:"rating"` // derived from reaction rows, never stored
	CommentCount int `gorm:"-" json:"comment_count"`
}
