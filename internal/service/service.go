package service

import (
	"errors"

	"go.uber.org/zap"

	"mentor-match/config"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	"mentor-match/pkg/jwt"
	"mentor-match/pkg/redis"
	"mentor-match/pkg/storage"
)

// ErrForbidden 调用者角色无权执行该操作
var ErrForbidden = errors.New("forbidden")

// Caller 由 JWT 中间件解析出的当前调用者
type Caller struct {
	ID   int64
	Role model.Role
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Mentor       MentorService
	MatchRequest MatchRequestService
	Export       ExportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（Redis 不可用时登出降级为空操作）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	store storage.Storage,
	logger *zap.Logger,
) *Service {
	links := newImageLinker(cfg.Server.BaseURL, store)

	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, links, logger),
		User:         NewUserService(repo, store, links, logger),
		Mentor:       NewMentorService(repo, links, logger),
		MatchRequest: NewMatchRequestService(repo, links, logger),
		Export:       NewExportService(repo, logger),
	}
}
