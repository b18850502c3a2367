package ingredient

import (
	"recipe-enricher/internal/pkg/common"
)

// RunCache 單次 enrichment run 範圍內的食材快取
// 以正規化名稱為鍵；run 結束即丟棄，不需要 TTL、鎖或淘汰
type RunCache struct {
	store map[string]*common.ResolvedIngredient
	stats runCacheStats
}

// runCacheStats 快取統計
type runCacheStats struct {
	hits   int64
	misses int64
}

// NewRunCache 創建 run 範圍食材快取
func NewRunCache() *RunCache {
	return &RunCache{
		store: make(map[string]*common.ResolvedIngredient),
	}
}

// Get 獲取快取值
func (c *RunCache) Get(name string) (*common.ResolvedIngredient, bool) {
	entry, exists := c.store[name]
	if !exists {
		c.stats.misses++
		common.LogCacheMiss("ingredient", name)
		return nil, false
	}
	c.stats.hits++
	common.LogCacheHit("ingredient", name)
	return entry, true
}

// Set 設置快取值
func (c *RunCache) Set(name string, ing *common.ResolvedIngredient) {
	c.store[name] = ing
}

// Stats 快取統計信息
func (c *RunCache) Stats() map[string]interface{} {
	total := c.stats.hits + c.stats.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(c.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(c.store),
		"hits":      c.stats.hits,
		"misses":    c.stats.misses,
		"hit_ratio": ratio,
	}
}
