package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全 HTTP 头中间件
// 纯 JSON API：禁止被嵌入、禁止 MIME 嗅探；头像图片允许跨源加载
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'")

		c.Next()
	}
}
