package services

import (
	"errors"
	"log"

	"campuslink/internal/db"
	"campuslink/internal/models"

	"gorm.io/gorm"
)

// Toggle outcomes returned to the caller.
const (
	ReactionCreated = "created"
	ReactionUpdated = "updated"
	ReactionRemoved = "removed"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidKind = errors.New("invalid reaction kind")
)

// TogglePostReaction 处理帖子点赞/点踩的状态机
// 无记录 -> 创建；同类重复 -> 删除（取消）；不同类 -> 原地更新
// 每个 (post, user) 对至多存在一行，由唯一索引兜底
func TogglePostReaction(postID, userID uint, kind string) (string, error) {
	if kind != models.ReactionUpvote && kind != models.ReactionDownvote {
		return "", ErrInvalidKind
	}

	var action string
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").Where("id = ? AND is_active = ?", postID, true).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.PostReaction
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			action = ReactionCreated
			return tx.Create(&models.PostReaction{PostID: postID, UserID: userID, Kind: kind}).Error
		}
		if err != nil {
			return err
		}

		if existing.Kind == kind {
			// 重复同样的手势 = 取消
			action = ReactionRemoved
			return tx.Delete(&existing).Error
		}

		action = ReactionUpdated
		return tx.Model(&existing).Update("kind", kind).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKind) {
			return "", err
		}
		log.Printf("toggle post reaction failed (post=%d user=%d kind=%s): %v", postID, userID, kind, err)
		return "", err
	}
	return action, nil
}

// ToggleCommentReaction 与 TogglePostReaction 相同的状态机，作用于评论
func ToggleCommentReaction(commentID, userID uint, kind string) (string, error) {
	if kind != models.ReactionUpvote && kind != models.ReactionDownvote {
		return "", ErrInvalidKind
	}

	var action string
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id, post_id").First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// 帖子下架后评论同样不再接受反应
		var post models.Post
		if err := tx.Select("id").Where("id = ? AND is_active = ?", comment.PostID, true).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.CommentReaction
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			action = ReactionCreated
			return tx.Create(&models.CommentReaction{CommentID: commentID, UserID: userID, Kind: kind}).Error
		}
		if err != nil {
			return err
		}

		if existing.Kind == kind {
			action = ReactionRemoved
			return tx.Delete(&existing).Error
		}

		action = ReactionUpdated
		return tx.Model(&existing).Update("kind", kind).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKind) {
			return "", err
		}
		log.Printf("toggle comment reaction failed (comment=%d user=%d kind=%s): %v", commentID, userID, kind, err)
		return "", err
	}
	return action, nil
}

// PostRating 实时聚合帖子评分：count(upvote) - count(downvote)
func PostRating(postID uint) int {
	var rating int
	db.DB.Model(&models.PostReaction{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE -1 END), 0)", models.ReactionUpvote).
		Where("post_id = ?", postID).
		Scan(&rating)
	return rating
}

// CommentRating 实时聚合单条评论的评分
func CommentRating(commentID uint) int {
	var rating int
	db.DB.Model(&models.CommentReaction{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE -1 END), 0)", models.ReactionUpvote).
		Where("comment_id = ?", commentID).
		Scan(&rating)
	return rating
}

// CommentRatings 批量聚合一页评论的评分，一次 GROUP BY 查询
func CommentRatings(commentIDs []uint) map[uint]int {
	ratings := make(map[uint]int, len(commentIDs))
	if len(commentIDs) == 0 {
		return ratings
	}

	type ratingRow struct {
		CommentID uint
		Rating    int
	}
	var rows []ratingRow
	db.DB.Model(&models.CommentReaction{}).
		Select("comment_id, SUM(CASE WHEN kind = ? THEN 1 ELSE -1 END) as rating", models.ReactionUpvote).
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows)

	for _, r := range rows {
		ratings[r.CommentID] = r.Rating
	}
	return ratings
}

// PostReactionOf 返回用户对帖子的当前反应，没有则返回空串
func PostReactionOf(postID, userID uint) string {
	if userID == 0 {
		return ""
	}
	var reaction models.PostReaction
	if err := db.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&reaction).Error; err != nil {
		return ""
	}
	return reaction.Kind
}
