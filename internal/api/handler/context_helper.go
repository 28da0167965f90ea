package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/api/middleware"
	"mentor-match/internal/model"
	"mentor-match/internal/service"
	"mentor-match/pkg/response"
	"mentor-match/pkg/validator"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
		return 0, false
	}
	return id, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get(middleware.CtxRole)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
		return "", false
	}
	role, ok := v.(model.Role)
	if !ok || role == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
		return "", false
	}
	return role, true
}

// mustGetCaller 组合 user_id 与 role
func mustGetCaller(c *gin.Context) (service.Caller, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{ID: id, Role: role}, true
}

// tokenFromContext 当前令牌的 jti 与过期时间（登出用）
func tokenFromContext(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	exp, _ := c.Get(middleware.CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}

// parseIDParam 解析路径参数中的整数 ID，失败时写入 400
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, response.CodeBadRequest, "Invalid request ID")
		return 0, false
	}
	return id, true
}

// bindError 请求体绑定失败：超限 413，其余 400 并附带字段详情
func bindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "Request body too large")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeBadRequest, "Validation failed", validator.Describe(err))
}
