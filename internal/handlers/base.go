package handlers

import (
	"net/http"

	"campuslink/internal/middleware"
	"campuslink/internal/models"

	"github.com/gin-gonic/gin"
)

// 对外统一的失败文案，内部错误细节只进日志
const (
	MsgNotAuthenticated = "not authenticated"
	MsgTooManyRequests  = "too many requests"
	MsgGenericFailure   = "something went wrong"
)

// CurrentUser 从上下文取已加载的登录用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil, false
	}
	return user.(*models.User), true
}

// CurrentUserID 取登录用户 ID，未登录返回 0
func CurrentUserID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

// Fail 输出统一结构的失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// FailAuth 统一的未登录响应，不泄露目标是否存在
func FailAuth(c *gin.Context) {
	Fail(c, http.StatusUnauthorized, MsgNotAuthenticated)
}

// FailGeneric 统一的内部错误响应
func FailGeneric(c *gin.Context) {
	Fail(c, http.StatusInternalServerError, MsgGenericFailure)
}
