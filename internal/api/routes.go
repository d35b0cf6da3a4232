package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"finCoach/internal/api/middleware"
	"finCoach/internal/auth"
	"finCoach/internal/config"
	"finCoach/internal/llm"
	"finCoach/internal/resolve"
	"finCoach/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	llmClient *llm.Client,
) {
	locator := resolve.NewLocator(db)
	resolver := resolve.NewResolver(storageClient, storageClient.Bucket())

	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL, cfg.Auth.CookieDomain)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins())
	resumeHandler := NewResumeHandler(db, storageClient, logger, cfg.Upload.MaxBytes, cfg.Upload.ClamdAddr)
	analyzeHandler := NewAnalyzeHandler(db, locator, resolver, llmClient, logger)
	outreachHandler := NewOutreachHandler(db, llmClient, logger)
	interviewHandler := NewInterviewHandler(db, asynqClient, logger)
	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.Upload)
			resumeGroup.GET("", resumeHandler.List)
			resumeGroup.POST("/analyze", analyzeHandler.Analyze)
			resumeGroup.GET("/analyses", analyzeHandler.History)
			resumeGroup.GET("/:id", resumeHandler.Get)
			resumeGroup.DELETE("/:id", resumeHandler.Delete)
		}

		outreachGroup := v1.Group("/outreach")
		outreachGroup.Use(authMiddleware)
		{
			outreachGroup.POST("", outreachHandler.Create)
			outreachGroup.GET("", outreachHandler.List)
		}

		interviewGroup := v1.Group("/interviews")
		interviewGroup.Use(authMiddleware)
		{
			interviewGroup.POST("", interviewHandler.Create)
			interviewGroup.GET("", interviewHandler.List)
			interviewGroup.GET("/:id", interviewHandler.Get)
			interviewGroup.POST("/:id/complete", interviewHandler.Complete)
		}
	}
}
