package middleware

import (
	"time"

	"recipe-manager/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄請求次數與延遲；route 使用註冊的路由樣板，避免以 id 產生大量標籤
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
