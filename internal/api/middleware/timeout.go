package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout 為請求上下文設置截止時間，供下游的儲存呼叫取消
// 超時後的錯誤響應由處理程序依儲存錯誤寫出
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// 創建新的請求上下文
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
