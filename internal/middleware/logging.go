// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pdf-qa-go/pkg/log"
)

// RequestLogger 是一个 Gin 中间件，记录每个请求的访问日志。
// 上传接口的请求体是二进制 PDF，因此只记录元信息，不缓存请求和响应体。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		fields := []interface{}{
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		log.Infow("HTTP Request Log", fields...)
	}
}
