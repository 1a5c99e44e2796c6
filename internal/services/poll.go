package services

import (
	"errors"
	"log"

	"campuslink/internal/db"
	"campuslink/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOptionNotFound = errors.New("option not found")
	ErrAlreadyVoted   = errors.New("already voted on this poll")
)

// PollOptionView 是投票选项的读模型，带上调用者自己的选择
type PollOptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Position  int    `json:"position"`
	VoteCount int    `json:"vote_count"`
	HasVoted  bool   `json:"has_voted"`
}

// PollOptions 按展示顺序返回帖子的全部选项
// userID 大于 0 时标记该用户选中的那一个选项
func PollOptions(postID, userID uint) ([]PollOptionView, error) {
	var options []models.PollOption
	if err := db.DB.Where("post_id = ?", postID).
		Order("position ASC, id ASC").
		Find(&options).Error; err != nil {
		log.Printf("load poll options failed (post=%d): %v", postID, err)
		return nil, err
	}

	views := make([]PollOptionView, len(options))
	votedOption := uint(0)
	if userID > 0 && len(options) > 0 {
		optionIDs := make([]uint, len(options))
		for i, o := range options {
			optionIDs[i] = o.ID
		}
		var vote models.PollVote
		if err := db.DB.Where("user_id = ? AND poll_option_id IN ?", userID, optionIDs).
			First(&vote).Error; err == nil {
			votedOption = vote.PollOptionID
		}
	}

	for i, o := range options {
		views[i] = PollOptionView{
			ID:        o.ID,
			Text:      o.Text,
			Position:  o.Position,
			VoteCount: o.VoteCount,
			HasVoted:  o.ID == votedOption,
		}
	}
	return views, nil
}

// VotePoll 在单个事务内记录一票并维护选项计数器
// 关键点：唯一性检查覆盖整个选项集（一人一票每个投票，而不是每个选项）
// 计数器自增使用服务端表达式，并发投同一选项不会丢失
//
// 已知局限：read-committed 下同一用户并发首投两个不同选项可能同时通过
// 集合检查；计数漂移由 reconcile worker 修正
func VotePoll(optionID, userID uint) error {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var option models.PollOption
		if err := tx.First(&option, optionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOptionNotFound
			}
			return err
		}

		// 下架帖子的投票不再收新票
		var post models.Post
		if err := tx.Select("id").Where("id = ? AND is_active = ?", option.PostID, true).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOptionNotFound
			}
			return err
		}

		// 枚举该帖子下属于同一投票的全部选项
		var optionIDs []uint
		if err := tx.Model(&models.PollOption{}).
			Where("post_id = ?", option.PostID).
			Pluck("id", &optionIDs).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.PollVote{}).
			Where("user_id = ? AND poll_option_id IN ?", userID, optionIDs).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		if err := tx.Create(&models.PollVote{PollOptionID: optionID, UserID: userID}).Error; err != nil {
			return err
		}

		return tx.Model(&models.PollOption{}).
			Where("id = ?", optionID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrOptionNotFound) || errors.Is(err, ErrAlreadyVoted) {
			return err
		}
		log.Printf("poll vote failed (option=%d user=%d): %v", optionID, userID, err)
		return err
	}
	return nil
}

// CreatePollOptions 随帖子一起在同一事务内创建选项集
func CreatePollOptions(tx *gorm.DB, postID uint, texts []string) error {
	for i, text := range texts {
		option := models.PollOption{
			PostID:   postID,
			Text:     text,
			Position: i,
		}
		if err := tx.Create(&option).Error; err != nil {
			return err
		}
	}
	return nil
}
