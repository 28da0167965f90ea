package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentor-match/pkg/response"
)

// RateLimiter 滑动窗口计数（*redis.Client 实现）
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 基于 Redis 滑动窗口的速率限制中间件（按客户端 IP）
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// limiter 为 nil 或 limit <= 0 时不限流
func RateLimit(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests,
				"Too many requests from this IP, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
