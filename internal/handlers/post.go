package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"campuslink/internal/db"
	"campuslink/internal/models"
	"campuslink/internal/services"
	"campuslink/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PostHandler struct{}

func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

type createPostRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ChannelID   uint     `json:"channel_id"`
	IsAnonymous bool     `json:"is_anonymous"`
	PollOptions []string `json:"poll_options"`
}

// Create 发布帖子，附带投票时选项与帖子在同一事务内创建
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		FailAuth(c)
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Fail(c, http.StatusBadRequest, "title is required")
		return
	}

	// 过滤空白选项；单选项的投票没有意义
	options := make([]string, 0, len(req.PollOptions))
	for _, text := range req.PollOptions {
		if t := strings.TrimSpace(text); t != "" {
			options = append(options, t)
		}
	}
	if len(options) == 1 {
		Fail(c, http.StatusBadRequest, "a poll needs at least two options")
		return
	}

	channelID := req.ChannelID
	if channelID == 0 {
		channelID = 1
	}

	post := models.Post{
		Pid:         utils.RandStringBytesMaskImpr(8),
		ChannelID:   channelID,
		UserID:      &user.ID,
		Title:       req.Title,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		IsActive:    true,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return services.CreatePollOptions(tx, post.ID, options)
	})
	if err != nil {
		FailGeneric(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "pid": post.Pid})
}

// List 按频道分页列出帖子，隐藏已下架的
func (h *PostHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 30
	offset := (page - 1) * perPage

	query := db.DB.Model(&models.Post{}).Where("is_active = ?", true)
	if channel := c.Query("channel"); channel != "" {
		var ch models.Channel
		if err := db.DB.Where("name = ?", channel).First(&ch).Error; err != nil {
			Fail(c, http.StatusNotFound, "channel not found")
			return
		}
		query = query.Where("channel_id = ?", ch.ID)
	}

	var total int64
	query.Session(&gorm.Session{}).Count(&total)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var posts []models.Post
	query.Session(&gorm.Session{}).
		Preload("User").Preload("Channel").
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"posts":        postViews(posts),
		"current_page": page,
		"total_pages":  totalPages,
		"total":        total,
	})
}

// Detail 帖子详情：派生评分、评论数、调用者自己的反应
// 共享部分走缓存，与请求者相关的状态每次实时查
func (h *PostHandler) Detail(c *gin.Context) {
	pid := c.Param("pid")
	userID := CurrentUserID(c)

	cacheKey := fmt.Sprintf("post:detail:%s", pid)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if shared, ok := cached.(gin.H); ok {
			c.JSON(http.StatusOK, withOwnReaction(shared, userID))
			return
		}
	}

	var post models.Post
	if err := db.DB.Preload("User").Preload("Channel").
		Where("pid = ? AND is_active = ?", pid, true).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusNotFound, "post not found")
			return
		}
		FailGeneric(c)
		return
	}

	post.Rating = services.PostRating(post.ID)

	var commentCount int64
	db.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount)
	post.CommentCount = int(commentCount)

	options, err := services.PollOptions(post.ID, 0)
	if err != nil {
		FailGeneric(c)
		return
	}

	data := gin.H{
		"success":      true,
		"post_id":      post.ID,
		"pid":          post.Pid,
		"title":        post.Title,
		"content_html": utils.RenderMarkdown(post.Content),
		"author":       utils.DisplayName(post.User, post.IsAnonymous),
		"channel":      post.Channel.Name,
		"rating":       post.Rating,
		"comments":     post.CommentCount,
		"has_poll":     len(options) > 0,
		"created_at":   post.CreatedAt,
	}

	// 写入共享缓存，私有状态不进缓存
	utils.GetCache().Set(cacheKey, data, 5*time.Minute)

	c.JSON(http.StatusOK, withOwnReaction(data, userID))
}

// withOwnReaction 先复制共享视图，再叠加调用者自己的反应
// 缓存里的条目是只读的，并发请求不能写同一个 map
func withOwnReaction(shared gin.H, userID uint) gin.H {
	resp := make(gin.H, len(shared)+1)
	for k, v := range shared {
		resp[k] = v
	}
	resp["own_reaction"] = ""
	if userID != 0 {
		if postID, ok := shared["post_id"].(uint); ok {
			resp["own_reaction"] = services.PostReactionOf(postID, userID)
		}
	}
	return resp
}

// fillCommentCounts 批量填充帖子的评论数量
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int, len(results))
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

// postView 是列表页的帖子投影
type postView struct {
	Pid          string    `json:"pid"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Channel      string    `json:"channel"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func postViews(posts []models.Post) []postView {
	views := make([]postView, len(posts))
	for i, p := range posts {
		views[i] = postView{
			Pid:          p.Pid,
			Title:        p.Title,
			Author:       utils.DisplayName(p.User, p.IsAnonymous),
			Channel:      p.Channel.Name,
			CommentCount: p.CommentCount,
			CreatedAt:    p.CreatedAt,
		}
	}
	return views
}
