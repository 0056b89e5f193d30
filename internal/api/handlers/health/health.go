package health

import (
	"net/http"
	"runtime"
	"time"

	recipeService "recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 注入到 gin.Context 的鍵
const (
	ConfigKey  = "config"
	ServiceKey = "recipe_service"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp time.Time                 `json:"timestamp"`
	Version   string                    `json:"version"`
	Runtime   map[string]interface{}    `json:"runtime"`
	Storage   *StorageStatus            `json:"storage,omitempty"`
	Cache     *recipeService.CacheStats `json:"cache,omitempty"`
}

// StorageStatus 儲存後端狀態
type StorageStatus struct {
	Driver  string `json:"driver"`
	Recipes int    `json:"recipes"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, ok := configFrom(c)
	if !ok {
		return
	}

	// 獲取食譜服務
	svc, ok := serviceFrom(c)
	if !ok {
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// 構建響應
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Storage: &StorageStatus{
			Driver:  svc.Driver(),
			Recipes: svc.Count(c.Request.Context()),
		},
		Cache: svc.CacheStats(),
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，後端無法連線時返回 503
func ReadinessCheck(c *gin.Context) {
	svc, ok := serviceFrom(c)
	if !ok {
		return
	}

	if err := svc.Ping(c.Request.Context()); err != nil {
		common.LogWarn("Readiness check failed",
			zap.String("driver", svc.Driver()),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"driver": svc.Driver(),
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"driver": svc.Driver(),
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func configFrom(c *gin.Context) (*config.Config, bool) {
	value, exists := c.Get(ConfigKey)
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Configuration not found",
		})
		return nil, false
	}
	cfg, ok := value.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid configuration type",
		})
		return nil, false
	}
	return cfg, true
}

func serviceFrom(c *gin.Context) (*recipeService.Service, bool) {
	value, exists := c.Get(ServiceKey)
	if !exists {
		common.LogError("Recipe service not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Recipe service not found",
		})
		return nil, false
	}
	svc, ok := value.(*recipeService.Service)
	if !ok {
		common.LogError("Invalid recipe service type in context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid recipe service type",
		})
		return nil, false
	}
	return svc, true
}
