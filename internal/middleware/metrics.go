package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"tomcat-devloop/internal/logger"
	"tomcat-devloop/services"
)

/**
 * HTTP请求统计中间件
 * @description
 * - 统计守护进程收到的请求数量和处理时间
 * - 状态码 >= 400 计为错误请求
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := c.Writer.Status()
		services.RecordRequest(path, status, time.Since(start).Seconds())
		logger.Debugf("%s %s -> %d (%v)", c.Request.Method, path, status, time.Since(start))
	}
}

// GetTotalRequests 获取总请求数
func GetTotalRequests() int64 {
	return services.GetTotalRequestCount()
}

// GetErrorRequests 获取错误请求数
func GetErrorRequests() int64 {
	return services.GetTotalErrorCount()
}
