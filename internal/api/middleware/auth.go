package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentor-match/internal/model"
	"mentor-match/pkg/jwt"
	"mentor-match/pkg/response"
)

// 上下文键
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// TokenBlacklist 已注销令牌查询（*redis.Client 实现）
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证访问令牌
// blacklist 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := jwt.ExtractFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, response.CodeUnauthorized, "Access token is missing or malformed")
			c.Abort()
			return
		}

		claims, err := jwtMgr.Verify(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token expired"
			}
			response.Unauthorized(c, response.CodeUnauthorized, msg)
			c.Abort()
			return
		}

		role, ok := model.ParseRole(claims.Role)
		if !ok {
			response.Unauthorized(c, response.CodeUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis 故障时放行，只记日志
				logger.Warn("黑名单检查失败", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, response.CodeUnauthorized, "Token has been revoked")
				c.Abort()
				return
			}
		}

		userID, _ := claims.UserID()
		c.Set(CtxUserID, userID)
		c.Set(CtxRole, role)
		c.Set(CtxTokenJTI, claims.ID)
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Set(CtxTokenExp, exp)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, response.CodeUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		userRole, _ := v.(model.Role)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, response.CodeForbidden, "You do not have permission to access this resource")
		c.Abort()
	}
}
