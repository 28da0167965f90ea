package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	"mentor-match/pkg/jwt"
)

var (
	ErrMissingFields      = errors.New("email, password, name and role are required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// BcryptCost 密码哈希强度
const BcryptCost = 12

// TokenBlacklist 已登出 Token 的存储（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	// Logout 吊销 Token 直至其过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	links     imageLinker
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// blacklist 为 nil 时登出不做任何事
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	links imageLinker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		links:     links,
		logger:    logger,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) error {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" || strings.TrimSpace(req.Role) == "" {
		return ErrMissingFields
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return ErrInvalidRole
	}

	// 1. 邮箱唯一性
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	// 2. 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	// 3. 落库（并发注册由唯一索引兜底）
	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		ImageKind:    model.ImageNone,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return err
	}

	s.logger.Info("用户注册成功", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 Token
	token, err := s.jwtMgr.Issue(jwt.Subject{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
	if err != nil {
		s.logger.Error("签发 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  s.links.toUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}
