package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/dto"
	"mentor-match/internal/service"
	"mentor-match/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Signup 用户注册
// POST /api/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.authSvc.Signup(c.Request.Context(), &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, dto.MessageResponse{Message: "User created successfully"})
}

// Login 用户登录
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 注销当前令牌
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenFromContext(c)
	if jti == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Message(c, "Logged out successfully")
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		response.BadRequest(c, 11001, "All fields are required")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 11002, "Role must be either mentor or mentee")
	case errors.Is(err, service.ErrEmailExists):
		response.BadRequest(c, 11003, "Email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11004, "Invalid email or password")
	default:
		response.InternalError(c)
	}
}
