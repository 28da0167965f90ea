package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-match/config"
	"mentor-match/internal/api/handler"
	"mentor-match/internal/api/router"
	"mentor-match/internal/repository"
	"mentor-match/internal/service"
	"mentor-match/pkg/database"
	"mentor-match/pkg/jwt"
	applogger "mentor-match/pkg/logger"
	"mentor-match/pkg/redis"
	"mentor-match/pkg/storage"
	"mentor-match/pkg/validator"
)

func main() {
	// 1. 加载配置（缺少 JWT 密钥时直接退出）
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并准备表结构
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	if err := prepareSchema(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，登出与限流功能将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 上传文件存储
	store, err := storage.New(&cfg.Storage, cfg.Server.BaseURL)
	if err != nil {
		logger.Fatal("初始化文件存储失败", zap.Error(err))
	}

	// 6. 校验器使用 JSON 字段名
	if err := validator.Setup(); err != nil {
		logger.Fatal("初始化校验器失败", zap.Error(err))
	}

	// 7. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 8. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, store, logger)
	h := handler.NewHandler(svc)

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, store, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// prepareSchema postgres 走 golang-migrate；sqlite 走 AutoMigrate + 部分唯一索引
func prepareSchema(db *gorm.DB, driver string, logger *zap.Logger) error {
	if driver == "sqlite" {
		return database.PrepareSQLite(db)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return database.RunMigrations(sqlDB, logger)
}
