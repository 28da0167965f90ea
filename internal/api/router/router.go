package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-match/config"
	"mentor-match/internal/api/handler"
	"mentor-match/internal/api/middleware"
	"mentor-match/internal/model"
	"mentor-match/pkg/jwt"
	"mentor-match/pkg/redis"
	"mentor-match/pkg/response"
	"mentor-match/pkg/storage"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：黑名单检查与限流随之关闭
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	store storage.Storage,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// nil 指针不能直接装进接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist, limiter = rdb, rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── 本地存储的上传文件 ──
	if local, ok := store.(*storage.LocalStorage); ok && cfg.Storage.PublicPath != "" {
		r.Static(cfg.Storage.PublicPath, local.BasePath())
	}

	// ── API ──
	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	{
		// 无需认证
		api.POST("/signup", h.Auth.Signup)
		api.POST("/login", h.Auth.Login)
		api.GET("/images/:role/:id", h.User.GetImage)

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/logout", h.Auth.Logout)

			// 个人资料
			authorized.GET("/me", h.User.GetMe)
			authorized.PUT("/profile", h.User.UpdateProfile)
			authorized.POST("/profile/image", h.User.UploadImage)

			// 导师列表
			authorized.GET("/mentors", middleware.RoleAuth(model.RoleMentee), h.Mentor.ListMentors)

			// 匹配请求
			mr := authorized.Group("/match-requests")
			{
				mentee := middleware.RoleAuth(model.RoleMentee)
				mentor := middleware.RoleAuth(model.RoleMentor)

				mr.POST("", mentee, h.MatchRequest.Create)
				mr.GET("/outgoing", mentee, h.MatchRequest.ListOutgoing)
				mr.DELETE("/:id", mentee, h.MatchRequest.Cancel)

				mr.GET("/incoming", mentor, h.MatchRequest.ListIncoming)
				mr.GET("/incoming/export", mentor, h.Export.ExportIncoming)
				mr.PUT("/:id/accept", mentor, h.MatchRequest.Accept)
				mr.PUT("/:id/reject", mentor, h.MatchRequest.Reject)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, response.CodeNotFound, "Route not found")
	})

	return r
}
