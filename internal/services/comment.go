package services

import (
	"errors"
	"html/template"
	"log"
	"time"

	"campuslink/internal/db"
	"campuslink/internal/models"
	"campuslink/internal/utils"

	"gorm.io/gorm"
)

const (
	defaultCommentLimit = 20
	maxCommentLimit     = 100
)

// CommentView 是评论的读模型：计算后的作者名、直接子回复数、派生评分
// Total 是分页前该层级的兄弟总数，附在每一行上，调用方无需二次查询
type CommentView struct {
	Cid          string        `json:"cid"`
	Author       string        `json:"author"`
	ContentHTML  template.HTML `json:"content_html"`
	CreatedAt    time.Time     `json:"created_at"`
	RepliesCount int           `json:"replies_count"`
	Rating       int           `json:"rating"`
	Total        int64         `json:"total"`
}

// CommentPage 是一次分页调用的结果
type CommentPage struct {
	Comments []CommentView `json:"comments"`
	Total    int64         `json:"total"`
}

// TopLevelComments 分页返回帖子的顶层评论
func TopLevelComments(postID uint, limit, offset int) (*CommentPage, error) {
	var post models.Post
	if err := db.DB.Select("id").Where("id = ? AND is_active = ?", postID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("load post for comments failed (post=%d): %v", postID, err)
		return nil, err
	}
	return commentPage(db.DB.Where("post_id = ? AND parent_id IS NULL", postID), limit, offset)
}

// Replies 分页返回某条评论的直接回复
// 每次调用只取一层，深层回复由调用方按需展开，响应大小与线程深度无关
func Replies(parentID uint, limit, offset int) (*CommentPage, error) {
	var parent models.Comment
	if err := db.DB.Select("id, post_id").First(&parent, parentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("load parent comment failed (comment=%d): %v", parentID, err)
		return nil, err
	}

	// 与顶层读取保持一致：下架帖子的回复同样不可见
	var post models.Post
	if err := db.DB.Select("id").Where("id = ? AND is_active = ?", parent.PostID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("load post for replies failed (post=%d): %v", parent.PostID, err)
		return nil, err
	}
	return commentPage(db.DB.Where("parent_id = ?", parentID), limit, offset)
}

// commentPage 对某一层级的兄弟评论做稳定分页
// 排序固定为插入顺序，id 兜底保证时间戳相同的行分页稳定
func commentPage(query *gorm.DB, limit, offset int) (*CommentPage, error) {
	if limit <= 0 {
		limit = defaultCommentLimit
	}
	if limit > maxCommentLimit {
		limit = maxCommentLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Comment{}).Count(&total).Error; err != nil {
		log.Printf("count comments failed: %v", err)
		return nil, err
	}

	var comments []models.Comment
	if err := query.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		log.Printf("load comments failed: %v", err)
		return nil, err
	}

	return buildCommentPage(comments, total), nil
}

// buildCommentPage 批量填充回复数和评分，避免每行一查
func buildCommentPage(comments []models.Comment, total int64) *CommentPage {
	page := &CommentPage{
		Comments: make([]CommentView, 0, len(comments)),
		Total:    total,
	}
	if len(comments) == 0 {
		return page
	}

	commentIDs := make([]uint, len(comments))
	for i, com := range comments {
		commentIDs[i] = com.ID
	}

	// 批量统计直接子回复数
	type countRow struct {
		ParentID uint
		Count    int
	}
	var counts []countRow
	db.DB.Model(&models.Comment{}).
		Select("parent_id, COUNT(*) as count").
		Where("parent_id IN ?", commentIDs).
		Group("parent_id").
		Scan(&counts)
	countMap := make(map[uint]int, len(counts))
	for _, r := range counts {
		countMap[r.ParentID] = r.Count
	}

	ratings := CommentRatings(commentIDs)

	for _, com := range comments {
		page.Comments = append(page.Comments, CommentView{
			Cid:          com.Cid,
			Author:       utils.DisplayName(com.User, com.IsAnonymous),
			ContentHTML:  utils.RenderMarkdown(com.Content),
			CreatedAt:    com.CreatedAt,
			RepliesCount: countMap[com.ID],
			Rating:       ratings[com.ID],
			Total:        total,
		})
	}
	return page
}

// CreateComment 在帖子下新建评论或回复
// parentID 非空时父评论必须属于同一帖子
func CreateComment(postID uint, parentID *uint, userID uint, content string, anonymous bool) (*models.Comment, error) {
	var post models.Post
	if err := db.DB.Select("id").Where("id = ? AND is_active = ?", postID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if parentID != nil {
		var parent models.Comment
		if err := db.DB.Select("id, post_id").First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrNotFound
		}
	}

	comment := models.Comment{
		Cid:         utils.RandStringBytesMaskImpr(8),
		PostID:      postID,
		UserID:      &userID,
		ParentID:    parentID,
		Content:     content,
		IsAnonymous: anonymous,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("create comment failed (post=%d user=%d): %v", postID, userID, err)
		return nil, err
	}
	return &comment, nil
}
