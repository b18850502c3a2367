package catalog

import (
	"context"
	"time"

	"recipe-enricher/internal/pkg/common"
)

// Credential 目錄服務的會話憑證
type Credential struct {
	SessionToken string
	ExpiresAt    time.Time
}

// Valid 憑證存在且未過期
func (c Credential) Valid() bool {
	return c.SessionToken != "" && time.Now().Before(c.ExpiresAt)
}

// RecipeIngredientRef 食譜與食材的關聯，帶用量
type RecipeIngredientRef struct {
	IngredientID string   `json:"ingredientId"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
}

// RecipeRecord 要寫入目錄的食譜
type RecipeRecord struct {
	Slug            string                   `json:"slug"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	PreparationTime int                      `json:"preparationTime"`
	CookingTime     int                      `json:"cookingTime"`
	Portions        int                      `json:"portions"`
	Source          string                   `json:"source"`
	SourceInput     string                   `json:"sourceInput"`
	Nutrition       *common.NutritionProfile `json:"nutrition,omitempty"`
	Ingredients     []RecipeIngredientRef    `json:"ingredients"`
}

// StepRecord 要寫入目錄的食譜步驟，掛在已存在的食譜底下
type StepRecord struct {
	RecipeID string `json:"recipeId"`
	common.EnhancedStep
}

// Catalog 食材與食譜目錄
// 查無資料時 Find 系列回傳 common.ErrNotFound，呼叫端據此走後備路徑
type Catalog interface {
	FindIngredientByName(ctx context.Context, name string) (*common.CatalogIngredient, error)
	FindIngredientByDisplayName(ctx context.Context, displayName string) (*common.CatalogIngredient, error)
	SaveIngredient(ctx context.Context, ing *common.CatalogIngredient) (string, error)
	SaveRecipe(ctx context.Context, recipe *RecipeRecord) (string, error)
	SaveRecipeStep(ctx context.Context, step *StepRecord) (string, error)
	Stats(ctx context.Context) (*common.CatalogStats, error)
}
