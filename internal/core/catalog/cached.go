package catalog

import (
	"context"
	"encoding/json"
	"time"

	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedCatalog 在目錄前面加一層 redis read-through 快取
// 只快取食材查詢；寫入一律直通底層目錄，成功後回填快取
type CachedCatalog struct {
	inner Catalog
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedCatalog 包裝目錄；快取停用時原樣回傳底層目錄
func NewCachedCatalog(inner Catalog, cfg config.CacheConfig) Catalog {
	if !cfg.Enabled {
		common.LogInfo("共享食材快取未啟用")
		return inner
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	common.LogInfo("共享食材快取已啟用",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL),
	)
	return &CachedCatalog{inner: inner, rdb: rdb, ttl: cfg.TTL}
}

func ingredientKey(kind, value string) string {
	return "ingredient:" + kind + ":" + value
}

// lookup 先查 redis，未命中再查底層並回填
// redis 故障時只記 log，直接走底層查詢
func (c *CachedCatalog) lookup(ctx context.Context, key string,
	find func(context.Context) (*common.CatalogIngredient, error)) (*common.CatalogIngredient, error) {

	raw, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var ing common.CatalogIngredient
		if err := json.Unmarshal([]byte(raw), &ing); err == nil {
			common.LogCacheHit("catalog", key)
			return &ing, nil
		}
	} else if err != redis.Nil {
		common.LogWarn("共享快取讀取失敗", zap.String("key", key), zap.Error(err))
	}
	common.LogCacheMiss("catalog", key)

	ing, err := find(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, ing)
	return ing, nil
}

func (c *CachedCatalog) store(ctx context.Context, key string, ing *common.CatalogIngredient) {
	data, err := json.Marshal(ing)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		common.LogWarn("共享快取寫入失敗", zap.String("key", key), zap.Error(err))
	}
}

// FindIngredientByName 以正規化名稱查詢，經由快取
func (c *CachedCatalog) FindIngredientByName(ctx context.Context, name string) (*common.CatalogIngredient, error) {
	return c.lookup(ctx, ingredientKey("name", name), func(ctx context.Context) (*common.CatalogIngredient, error) {
		return c.inner.FindIngredientByName(ctx, name)
	})
}

// FindIngredientByDisplayName 以顯示名稱查詢，經由快取
func (c *CachedCatalog) FindIngredientByDisplayName(ctx context.Context, displayName string) (*common.CatalogIngredient, error) {
	return c.lookup(ctx, ingredientKey("display", displayName), func(ctx context.Context) (*common.CatalogIngredient, error) {
		return c.inner.FindIngredientByDisplayName(ctx, displayName)
	})
}

// SaveIngredient 寫入底層目錄並回填快取
func (c *CachedCatalog) SaveIngredient(ctx context.Context, ing *common.CatalogIngredient) (string, error) {
	id, err := c.inner.SaveIngredient(ctx, ing)
	if err != nil {
		return "", err
	}

	saved := *ing
	saved.ID = id
	c.store(ctx, ingredientKey("name", saved.Name), &saved)
	return id, nil
}

// SaveRecipe 直通底層目錄
func (c *CachedCatalog) SaveRecipe(ctx context.Context, recipe *RecipeRecord) (string, error) {
	return c.inner.SaveRecipe(ctx, recipe)
}

// SaveRecipeStep 直通底層目錄
func (c *CachedCatalog) SaveRecipeStep(ctx context.Context, step *StepRecord) (string, error) {
	return c.inner.SaveRecipeStep(ctx, step)
}

// Stats 直通底層目錄
func (c *CachedCatalog) Stats(ctx context.Context) (*common.CatalogStats, error) {
	return c.inner.Stats(ctx)
}
