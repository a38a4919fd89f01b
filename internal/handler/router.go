package handler

import (
	"mental-care-go/internal/middleware"
	"mental-care-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 汇总路由所需的业务服务。Documents 为 nil 时不注册上传接口。
type Services struct {
	Users     service.UserService
	Chat      service.ChatService
	Scores    service.ScoreService
	Dashboard *service.DashboardService
	Documents service.DocumentService
}

// NewRouter 创建 Gin 引擎并注册全部路由。
func NewRouter(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	userHandler := NewUserHandler(svc.Users)
	chatHandler := NewChatHandler(svc.Chat, svc.Users)
	scoreHandler := NewScoreHandler(svc.Scores)
	dashboardHandler := NewDashboardHandler(svc.Dashboard)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/chat/:token", chatHandler.Handle)

	apiV1 := r.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/guest", userHandler.GuestLogin)
		}

		auth := apiV1.Group("/")
		auth.Use(middleware.AuthMiddleware(svc.Users))
		{
			auth.GET("/users/me", userHandler.GetProfile)
			auth.POST("/users/logout", userHandler.Logout)

			auth.GET("/chat/history", chatHandler.History)
			auth.POST("/chat/messages", chatHandler.SendMessage)

			auth.GET("/scores", scoreHandler.List)
			auth.POST("/scores", scoreHandler.Record)

			auth.GET("/dashboard", dashboardHandler.Overview)
			auth.GET("/dashboard/day", dashboardHandler.Day)

			if svc.Documents != nil {
				admin := auth.Group("/admin")
				admin.Use(middleware.AdminAuthMiddleware())
				admin.POST("/documents", NewDocumentHandler(svc.Documents).Upload)
			}
		}
	}
	return r
}
