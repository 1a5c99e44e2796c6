package models

import (
	"time"
)

// Reaction kinds shared by post and comment reactions.
const (
	ReactionUpvote   = "upvote"
	ReactionDownvote = "downvote"
)

// PostReaction holds at most one row per (post, user) pair, enforced by the
// composite unique index. The row is deleted outright on toggle-off, never
// soft-deleted.
type PostReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_reaction" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_reaction" json:"user_id"`
	Kind      string    `gorm:"size:10;not null" json:"kind"` // upvote or downvote
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentReaction mirrors PostReaction, keyed on (comment, user).
type CommentReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_reaction" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_reaction" json:"user_id"`
	Kind      string    `gorm:"size:10;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
