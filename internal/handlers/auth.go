package handlers

import (
	"net/http"
	"strings"

	"campuslink/internal/db"
	"campuslink/internal/models"
	"campuslink/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 创建账号并直接登录
func (h *AuthHandler) Register(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(req.Email, "@") {
		Fail(c, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < 8 {
		Fail(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		Fail(c, http.StatusBadRequest, "first name is required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		FailGeneric(c)
		return
	}

	user := models.User{
		Email:     req.Email,
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		// 大概率是邮箱重复
		Fail(c, http.StatusConflict, "email already registered")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// Login 校验密码并写入会话
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", strings.TrimSpace(strings.ToLower(req.Email))).First(&user).Error; err != nil {
		// 不区分账号不存在和密码错误
		Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logout 清空会话
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
