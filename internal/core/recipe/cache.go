package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

// SearchCache 搜尋結果快取，集合有任何變更時整體清空
type SearchCache struct {
	config config.CacheConfig
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

// cacheEntry 緩存條目，保存命中記錄的 id
type cacheEntry struct {
	ids         []int
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	purges    int64
}

// CacheStats 對外輸出的統計
type CacheStats struct {
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Purges    int64   `json:"purges"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NewSearchCache 創建搜尋快取；未啟用時返回 nil，nil 快取的所有方法都是 no-op
func NewSearchCache(cfg config.CacheConfig) *SearchCache {
	if !cfg.Enabled {
		common.LogInfo("Search cache disabled")
		return nil
	}

	c := &SearchCache{
		config: cfg,
		store:  make(map[string]cacheEntry),
		now:    time.Now,
		done:   make(chan struct{}),
	}

	// 啟動清理過期緩存的協程
	go c.startCleanup()

	common.LogInfo("搜尋快取已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return c
}

// Get 取得查詢的命中 id
func (c *SearchCache) Get(lowerQuery string) ([]int, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.generateKey(lowerQuery)
	entry, exists := c.store[key]
	if !exists {
		c.stats.misses++
		common.LogCacheMiss("search")
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.store, key)
		c.stats.evictions++
		c.stats.misses++
		common.LogCacheMiss("search")
		return nil, false
	}

	entry.lastAccess = now
	entry.accessCount++
	c.store[key] = entry
	c.stats.hits++
	common.LogCacheHit("search")
	return append([]int(nil), entry.ids...), true
}

// Set 保存查詢的命中 id
func (c *SearchCache) Set(lowerQuery string, ids []int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 檢查緩存大小
	if len(c.store) >= c.config.MaxSize {
		c.cleanup()
		if len(c.store) >= c.config.MaxSize {
			c.evictLRU()
		}
	}

	now := c.now()
	c.store[c.generateKey(lowerQuery)] = cacheEntry{
		ids:        append([]int(nil), ids...),
		expiresAt:  now.Add(c.config.TTL),
		lastAccess: now,
	}
}

// Purge 清空所有條目
func (c *SearchCache) Purge() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) > 0 {
		c.store = make(map[string]cacheEntry)
	}
	c.stats.purges++
}

// GetStats 獲取緩存統計信息
func (c *SearchCache) GetStats() *CacheStats {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := &CacheStats{
		Size:      len(c.store),
		MaxSize:   c.config.MaxSize,
		Hits:      c.stats.hits,
		Misses:    c.stats.misses,
		Evictions: c.stats.evictions,
		Purges:    c.stats.purges,
	}
	if total := c.stats.hits + c.stats.misses; total > 0 {
		stats.HitRatio = float64(c.stats.hits) / float64(total)
	}
	return stats
}

// Close 停止清理協程並清空緩存
func (c *SearchCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry)
	common.LogInfo("搜尋快取已關閉",
		zap.Int64("命中次數", c.stats.hits),
		zap.Int64("未命中次數", c.stats.misses),
		zap.Int64("淘汰次數", c.stats.evictions),
	)
}

// generateKey 生成緩存鍵
func (c *SearchCache) generateKey(lowerQuery string) string {
	hash := sha256.Sum256([]byte(lowerQuery))
	return "search:" + hex.EncodeToString(hash[:])
}

// startCleanup 定期清理過期緩存
func (c *SearchCache) startCleanup() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.cleanup()
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫前需持有鎖
func (c *SearchCache) cleanup() int {
	now := c.now()
	count := 0
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
			count++
			c.stats.evictions++
		}
	}
	if count > 0 {
		common.LogDebug("Cleaned up expired search cache entries",
			zap.Int("count", count),
			zap.Int("remaining_size", len(c.store)),
		)
	}
	return count
}

// evictLRU 淘汰最少訪問的項目，呼叫前需持有鎖
func (c *SearchCache) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range c.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(c.store, oldestKey)
		c.stats.evictions++
	}
}
