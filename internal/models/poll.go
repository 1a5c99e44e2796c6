package models

import (
	"time"
)

// PollOption rows are created atomically with their parent post. VoteCount
// is denormalized for display and only written by the poll service and the
// reconcile worker.
type PollOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	Text      string    `gorm:"size:200;not null" json:"text"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	VoteCount int       `gorm:"not null;default:0" json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

// PollVote rows are insert-only: no change-vote or un-vote path exists.
// The unique index blocks a second vote on the same option; one vote across
// the whole option set is enforced inside the voting transaction.
type PollVote struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PollOptionID uint       `gorm:"not null;uniqueIndex:idx_poll_vote" json:"poll_option_id"`
	PollOption   PollOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"poll_option"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_poll_vote" json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
}
