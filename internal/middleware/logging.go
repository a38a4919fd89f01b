// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"strconv"
	"time"

	"mental-care-go/pkg/log"
	"mental-care-go/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RequestLogger 是一个 Gin 中间件，记录每个请求的状态、耗时和来源。
// 请求体与响应体含密码和对话内容，不写入日志；路径只记路由模板，/chat/:token 里的 token 不落盘。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		log.Infow("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", routePath(c),
			"responseSize", c.Writer.Size(),
		)
	}
}

// routePath 返回命中的路由模板，未命中任何路由时返回 "unmatched"。
func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}

// Metrics 记录请求耗时直方图，path 使用路由模板以控制基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		metrics.HTTPDuration.
			WithLabelValues(c.Request.Method, routePath(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(startTime).Seconds())
	}
}
