package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"campuslink/internal/db"
	"campuslink/internal/models"
	"campuslink/internal/services"
	"campuslink/internal/utils"

	"github.com/gin-gonic/gin"
)

// EngagementHandler 是互动子系统的入口：帖子/评论反应、投票、评论树分页
type EngagementHandler struct{}

func NewEngagementHandler() *EngagementHandler {
	return &EngagementHandler{}
}

// 与 ListComments 的默认 limit 保持一致
const defaultCommentPageLimit = 20

type voteRequest struct {
	Kind string `json:"kind"` // upvote or downvote
}

type createCommentRequest struct {
	Content     string `json:"content"`
	ParentCid   string `json:"parent_cid"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// VotePost 切换当前用户对帖子的反应
func (h *EngagementHandler) VotePost(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		FailAuth(c)
		return
	}

	var post models.Post
	if err := db.DB.Select("id, pid").Where("pid = ?", c.Param("pid")).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "post not found")
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := services.TogglePostReaction(post.ID, user.ID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKind):
			Fail(c, http.StatusBadRequest, "invalid reaction kind")
		case errors.Is(err, services.ErrNotFound):
			Fail(c, http.StatusNotFound, "post not found")
		default:
			FailGeneric(c)
		}
		return
	}

	// 帖子详情缓存里有派生评分，失效掉
	utils.GetCache().Delete(fmt.Sprintf("post:detail:%s", post.Pid))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"action":  action,
		"kind":    req.Kind,
		"rating":  services.PostRating(post.ID),
	})
}

// VoteComment 切换当前用户对评论的反应
func (h *EngagementHandler) VoteComment(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		FailAuth(c)
		return
	}

	var comment models.Comment
	if err := db.DB.Preload("Post").Where("cid = ?", c.Param("cid")).First(&comment).Error; err != nil {
		Fail(c, http.StatusNotFound, "comment not found")
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := services.ToggleCommentReaction(comment.ID, user.ID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKind):
			Fail(c, http.StatusBadRequest, "invalid reaction kind")
		case errors.Is(err, services.ErrNotFound):
			Fail(c, http.StatusNotFound, "comment not found")
		default:
			FailGeneric(c)
		}
		return
	}

	// 评论页缓存里带派生评分，一并失效
	utils.GetCache().Delete(fmt.Sprintf("post:detail:%s", comment.Post.Pid))
	utils.GetCache().Delete(fmt.Sprintf("post:comments:%d", comment.PostID))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"action":  action,
		"kind":    req.Kind,
		"rating":  services.CommentRating(comment.ID),
	})
}

// VotePoll 给投票的某个选项投一票，整个投票一人一票
func (h *EngagementHandler) VotePoll(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		FailAuth(c)
		return
	}

	optionID := utils.StringToUint(c.Param("id"))
	if optionID == 0 {
		Fail(c, http.StatusBadRequest, "invalid option id")
		return
	}

	if err := services.VotePoll(optionID, user.ID); err != nil {
		switch {
		case errors.Is(err, services.ErrOptionNotFound):
			Fail(c, http.StatusNotFound, "option not found")
		case errors.Is(err, services.ErrAlreadyVoted):
			Fail(c, http.StatusConflict, "already voted on this poll")
		default:
			FailGeneric(c)
		}
		return
	}

	// 票已落库：失效共享视图，排一次计数核对
	var option models.PollOption
	if err := db.DB.Preload("Post").First(&option, optionID).Error; err == nil {
		utils.GetCache().Delete(fmt.Sprintf("post:detail:%s", option.Post.Pid))
		utils.GetCache().Delete(fmt.Sprintf("poll:options:%d", option.PostID))
		services.GetReconcileService().Schedule(option.PostID)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "vote recorded"})
}

// PollOptions 返回帖子的投票选项及计数
// 共享的选项列表走缓存，调用者自己的选择每次实时查
func (h *EngagementHandler) PollOptions(c *gin.Context) {
	var post models.Post
	if err := db.DB.Select("id").Where("pid = ? AND is_active = ?", c.Param("pid"), true).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "post not found")
		return
	}
	userID := CurrentUserID(c)

	cacheKey := fmt.Sprintf("poll:options:%d", post.ID)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if shared, ok := cached.([]services.PollOptionView); ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "options": markOwnVote(shared, userID)})
			return
		}
	}

	options, err := services.PollOptions(post.ID, 0)
	if err != nil {
		FailGeneric(c)
		return
	}
	utils.GetCache().Set(cacheKey, options, 1*time.Minute)

	c.JSON(http.StatusOK, gin.H{"success": true, "options": markOwnVote(options, userID)})
}

// markOwnVote 在共享的选项视图上叠加调用者自己的选择
func markOwnVote(shared []services.PollOptionView, userID uint) []services.PollOptionView {
	if userID == 0 || len(shared) == 0 {
		return shared
	}

	optionIDs := make([]uint, len(shared))
	for i, o := range shared {
		optionIDs[i] = o.ID
	}
	var vote models.PollVote
	if err := db.DB.Where("user_id = ? AND poll_option_id IN ?", userID, optionIDs).First(&vote).Error; err != nil {
		return shared
	}

	marked := make([]services.PollOptionView, len(shared))
	copy(marked, shared)
	for i := range marked {
		marked[i].HasVoted = marked[i].ID == vote.PollOptionID
	}
	return marked
}

// ListComments 分页返回帖子的顶层评论
func (h *EngagementHandler) ListComments(c *gin.Context) {
	var post models.Post
	if err := db.DB.Select("id").Where("pid = ? AND is_active = ?", c.Param("pid"), true).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "post not found")
		return
	}

	limit := utils.StringToInt(c.DefaultQuery("limit", "20"))
	offset := utils.StringToInt(c.DefaultQuery("offset", "0"))

	// 只缓存默认第一页：命中率最高，失效只需删一个键
	// 缓存的页是只读的，每次请求原样返回，不往上面写任何东西
	firstPage := offset == 0 && limit == defaultCommentPageLimit
	cacheKey := fmt.Sprintf("post:comments:%d", post.ID)
	if firstPage {
		if cached := utils.GetCache().Get(cacheKey); cached != nil {
			if page, ok := cached.(*services.CommentPage); ok {
				c.JSON(http.StatusOK, gin.H{"success": true, "comments": page.Comments, "total": page.Total})
				return
			}
		}
	}

	page, err := services.TopLevelComments(post.ID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			Fail(c, http.StatusNotFound, "post not found")
			return
		}
		FailGeneric(c)
		return
	}

	if firstPage {
		utils.GetCache().Set(cacheKey, page, 1*time.Minute)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comments": page.Comments, "total": page.Total})
}

// ListReplies 分页返回某条评论的直接回复，一次一层
func (h *EngagementHandler) ListReplies(c *gin.Context) {
	var comment models.Comment
	if err := db.DB.Select("id").Where("cid = ?", c.Param("cid")).First(&comment).Error; err != nil {
		Fail(c, http.StatusNotFound, "comment not found")
		return
	}

	limit := utils.StringToInt(c.DefaultQuery("limit", "20"))
	offset := utils.StringToInt(c.DefaultQuery("offset", "0"))

	page, err := services.Replies(comment.ID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			Fail(c, http.StatusNotFound, "comment not found")
			return
		}
		FailGeneric(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comments": page.Comments, "total": page.Total})
}

// CreateComment 在帖子下发表评论或回复
func (h *EngagementHandler) CreateComment(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		FailAuth(c)
		return
	}

	var post models.Post
	if err := db.DB.Select("id, pid").Where("pid = ? AND is_active = ?", c.Param("pid"), true).First(&post).Error; err != nil {
		Fail(c, http.StatusNotFound, "post not found")
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		Fail(c, http.StatusBadRequest, "content is required")
		return
	}

	var parentID *uint
	if req.ParentCid != "" {
		var parent models.Comment
		if err := db.DB.Select("id, post_id").Where("cid = ?", req.ParentCid).First(&parent).Error; err != nil {
			Fail(c, http.StatusNotFound, "parent comment not found")
			return
		}
		parentID = &parent.ID
	}

	comment, err := services.CreateComment(post.ID, parentID, user.ID, req.Content, req.IsAnonymous)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			Fail(c, http.StatusNotFound, "parent comment not found")
			return
		}
		FailGeneric(c)
		return
	}

	// 详情页缓存里有评论计数，评论页缓存整页失效
	utils.GetCache().Delete(fmt.Sprintf("post:detail:%s", post.Pid))
	utils.GetCache().Delete(fmt.Sprintf("post:comments:%d", post.ID))

	c.JSON(http.StatusCreated, gin.H{"success": true, "cid": comment.Cid})
}
