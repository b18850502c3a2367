package ingredient

import (
	"context"
	"errors"
	"fmt"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/core/catalog"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// Resolver 將原始食材文字行解析成目錄食材
// 解析路徑依序為：run 快取、目錄查詢、AI 描述、合成 fallback
// 任何一行的失敗都不會讓整次解析失敗
type Resolver struct {
	gateway *ai.Gateway
	catalog catalog.Catalog
	cache   *RunCache
}

// NewResolver 創建食材解析器
func NewResolver(gateway *ai.Gateway, cat catalog.Catalog) *Resolver {
	return &Resolver{
		gateway: gateway,
		catalog: cat,
		cache:   NewRunCache(),
	}
}

// aiIngredient AI 回傳的食材描述
type aiIngredient struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"displayName"`
	DisplayPlural  string   `json:"displayPlural"`
	Plural         string   `json:"plural"`
	Type           string   `json:"type"`
	FrozenOrCanned bool     `json:"frozenOrCanned"`
	Seasons        []string `json:"seasons"`
	WithPork       bool     `json:"withPork"`
	StoreShelf     string   `json:"storeShelf"`
	GrossWeight    float64  `json:"grossWeight"`
}

// ResolveIngredients 解析整份食材清單
func (r *Resolver) ResolveIngredients(ctx context.Context, lines []string) []common.ResolvedIngredient {
	resolved := make([]common.ResolvedIngredient, 0, len(lines))
	for _, line := range lines {
		ing := r.ResolveIngredient(ctx, line)
		if ing != nil {
			resolved = append(resolved, *ing)
		}
	}
	return resolved
}

// ResolveIngredient 解析單行食材文字
func (r *Resolver) ResolveIngredient(ctx context.Context, line string) *common.ResolvedIngredient {
	parsed := ParseLine(line)
	if parsed.Name == "" {
		return nil
	}

	// run 快取命中時沿用已解析的食材，但數量與單位取自本行
	if cached, ok := r.cache.Get(parsed.Name); ok {
		return withLineContext(cached, parsed)
	}

	// 目錄查詢
	if ing := r.findInCatalog(ctx, parsed.Name); ing != nil {
		resolved := fromCatalog(ing, parsed)
		r.cache.Set(parsed.Name, resolved)
		return withLineContext(resolved, parsed)
	}

	// 目錄查無，請 AI 產生描述並寫回目錄
	resolved, err := r.resolveWithAI(ctx, parsed)
	if err != nil {
		common.LogWarn("食材 AI 解析失敗，改用合成 fallback",
			zap.String("name", parsed.Name),
			zap.Error(err),
		)
		resolved = r.fallbackIngredient(ctx, parsed)
	}

	r.cache.Set(parsed.Name, resolved)
	return withLineContext(resolved, parsed)
}

// findInCatalog 先以名稱查，再以顯示名稱查；目錄故障視同查無
func (r *Resolver) findInCatalog(ctx context.Context, name string) *common.CatalogIngredient {
	ing, err := r.catalog.FindIngredientByName(ctx, name)
	if err == nil {
		return ing
	}
	if !errors.Is(err, common.ErrNotFound) {
		common.LogWarn("目錄查詢失敗", zap.String("name", name), zap.Error(err))
		return nil
	}

	ing, err = r.catalog.FindIngredientByDisplayName(ctx, common.Capitalize(name))
	if err == nil {
		return ing
	}
	if !errors.Is(err, common.ErrNotFound) {
		common.LogWarn("目錄查詢失敗", zap.String("name", name), zap.Error(err))
	}
	return nil
}

// resolveWithAI 請 AI 描述食材並寫入目錄
func (r *Resolver) resolveWithAI(ctx context.Context, parsed common.ParsedIngredientLine) (*common.ResolvedIngredient, error) {
	result, err := r.gateway.GenerateStructured(ctx, ai.ResolveIngredientPrompt(parsed.Name))
	if err != nil {
		return nil, err
	}

	var desc aiIngredient
	if err := result.Decode(&desc); err != nil {
		return nil, err
	}
	if desc.Name == "" {
		return nil, common.NewValidationError(
			fmt.Sprintf("AI ingredient descriptor for %q has no name", parsed.Name))
	}

	// 逐欄位補預設值
	if desc.DisplayName == "" {
		desc.DisplayName = common.Capitalize(desc.Name)
	}
	if desc.Plural == "" {
		desc.Plural = desc.Name + "s"
	}
	if desc.DisplayPlural == "" {
		desc.DisplayPlural = desc.DisplayName + "s"
	}
	if desc.Type == "" {
		desc.Type = "other"
	}
	if desc.StoreShelf == "" {
		desc.StoreShelf = "grocery"
	}
	if desc.GrossWeight <= 0 {
		desc.GrossWeight = 100
	}
	if desc.Seasons == nil {
		desc.Seasons = []string{}
	}

	entity := &common.CatalogIngredient{
		Name:           desc.Name,
		DisplayName:    desc.DisplayName,
		DisplayPlural:  desc.DisplayPlural,
		Plural:         desc.Plural,
		Type:           desc.Type,
		FrozenOrCanned: desc.FrozenOrCanned,
		Seasons:        desc.Seasons,
		WithPork:       desc.WithPork,
		StoreShelf:     desc.StoreShelf,
		GrossWeight:    desc.GrossWeight,
	}

	resolved := fromCatalog(entity, parsed)
	resolved.ID = r.saveToCatalog(ctx, entity)
	return resolved, nil
}

// fallbackIngredient 合成保底食材，仍會嘗試寫入目錄
func (r *Resolver) fallbackIngredient(ctx context.Context, parsed common.ParsedIngredientLine) *common.ResolvedIngredient {
	entity := &common.CatalogIngredient{
		Name:           parsed.Name,
		DisplayName:    common.Capitalize(parsed.Name),
		DisplayPlural:  common.Capitalize(parsed.Name) + "s",
		Plural:         parsed.Name + "s",
		Type:           "other",
		Seasons:        []string{},
		StoreShelf:     "grocery",
		GrossWeight:    100,
		FrozenOrCanned: false,
		WithPork:       false,
	}

	resolved := fromCatalog(entity, parsed)
	resolved.Degraded = true
	resolved.ID = r.saveToCatalog(ctx, entity)
	return resolved
}

// saveToCatalog 寫入失敗時只記 log，回傳空 ID
func (r *Resolver) saveToCatalog(ctx context.Context, entity *common.CatalogIngredient) string {
	id, err := r.catalog.SaveIngredient(ctx, entity)
	if err != nil {
		common.LogWarn("食材寫入目錄失敗",
			zap.String("name", entity.Name),
			zap.Error(err),
		)
		return ""
	}
	return id
}

// fromCatalog 將目錄食材轉成解析結果
func fromCatalog(ing *common.CatalogIngredient, parsed common.ParsedIngredientLine) *common.ResolvedIngredient {
	return &common.ResolvedIngredient{
		ID:             ing.ID,
		Name:           ing.Name,
		DisplayName:    ing.DisplayName,
		Type:           ing.Type,
		StoreShelf:     ing.StoreShelf,
		Seasons:        ing.Seasons,
		FrozenOrCanned: ing.FrozenOrCanned,
		WithPork:       ing.WithPork,
	}
}

// withLineContext 共用的解析結果配上本行的數量、單位與原文
func withLineContext(base *common.ResolvedIngredient, parsed common.ParsedIngredientLine) *common.ResolvedIngredient {
	out := *base
	out.Quantity = parsed.Quantity
	out.Unit = parsed.Unit
	out.OriginalText = parsed.OriginalText
	return &out
}

// GroupSimilarIngredients 合併同名食材，數量相加；單位取首次出現者
func GroupSimilarIngredients(ings []common.ResolvedIngredient) []common.ResolvedIngredient {
	order := make([]string, 0, len(ings))
	groups := make(map[string]*common.ResolvedIngredient)

	for _, ing := range ings {
		k := ing.Name

		existing, ok := groups[k]
		if !ok {
			merged := ing
			merged.Occurrences = 1
			groups[k] = &merged
			order = append(order, k)
			continue
		}

		existing.Occurrences++
		if ing.Quantity != nil {
			if existing.Quantity == nil {
				q := *ing.Quantity
				existing.Quantity = &q
			} else {
				sum := *existing.Quantity + *ing.Quantity
				existing.Quantity = &sum
			}
		}
	}

	out := make([]common.ResolvedIngredient, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out
}

// CacheStats run 快取統計
func (r *Resolver) CacheStats() map[string]interface{} {
	return r.cache.Stats()
}
