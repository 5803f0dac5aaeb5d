// Package middleware 提供最小访问日志（结构化），默认脱敏，不记录请求体与任何明文凭据。
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"catalogd/internal/auth"
)

// AccessLog 输出结构化访问日志。状态码与字节数取自 gin 自己的 ResponseWriter；
// user_id 在 c.Next() 之后读取，此时登录中间件写入的 Principal 已挂到请求上下文。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		lat := time.Since(start)

		var userID any
		if p, ok := auth.PrincipalFromContext(c.Request.Context()); ok {
			userID = p.UserID
		}
		bytes := c.Writer.Size()
		if bytes < 0 {
			bytes = 0
		}
		slog.Info("access",
			"request_id", GetRequestID(c.Request.Context()),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"bytes", bytes,
			"latency_ms", lat.Milliseconds(),
			"user_id", userID,
		)
	}
}
