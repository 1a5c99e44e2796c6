package router

import (
	"campuslink/internal/handlers"
	"campuslink/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	authHandler := handlers.NewAuthHandler()
	postHandler := handlers.NewPostHandler()
	engagementHandler := handlers.NewEngagementHandler()

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/signup", authHandler.Register) // 注册
	api.POST("/login", authHandler.Login)     // 登录
	api.POST("/logout", authHandler.Logout)   // 退出登录

	api.GET("/posts", postHandler.List)                               // 帖子列表
	api.GET("/posts/:pid", postHandler.Detail)                        // 帖子详情
	api.GET("/posts/:pid/poll", engagementHandler.PollOptions)        // 投票选项及计数
	api.GET("/posts/:pid/comments", engagementHandler.ListComments)   // 顶层评论分页
	api.GET("/comments/:cid/replies", engagementHandler.ListReplies)  // 评论的直接回复分页

	// 受保护路由 (Protected Routes)，写操作统一限流
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired(), middleware.RateLimit(2, 10))
	{
		authorized.POST("/posts", postHandler.Create)                         // 发布帖子（可附带投票）
		authorized.POST("/posts/:pid/comments", engagementHandler.CreateComment) // 发表评论/回复
		authorized.POST("/posts/:pid/vote", engagementHandler.VotePost)       // 帖子点赞/点踩
		authorized.POST("/comments/:cid/vote", engagementHandler.VoteComment) // 评论点赞/点踩
		authorized.POST("/polls/options/:id/vote", engagementHandler.VotePoll) // 投票
	}
}
