package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/core/catalog"
	"recipe-enricher/internal/core/generator"
	"recipe-enricher/internal/core/ingredient"
	"recipe-enricher/internal/core/nutrition"
	"recipe-enricher/internal/core/step"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeSource 抓取來源
type RecipeSource interface {
	ScrapeRecipe(ctx context.Context, url string) (*common.RawRecipe, error)
}

// Summary 單次 enrichment run 的結果摘要
type Summary struct {
	EnrichmentID     string `json:"enrichmentId"`
	RecipeID         string `json:"recipeId"`
	Title            string `json:"title"`
	IngredientsCount int    `json:"ingredientsCount"`
	StepsCount       int    `json:"stepsCount"`
}

// Enricher 食譜充實管線
// 來源擷取與持久化失敗會讓整個 run 失敗；中間階段一律降級續跑
type Enricher struct {
	gateway   *ai.Gateway
	scraper   RecipeSource
	catalog   catalog.Catalog
	generator *generator.Generator
	enhancer  *step.Enhancer
	estimator *nutrition.Estimator
}

// NewEnricher 創建充實管線
func NewEnricher(gateway *ai.Gateway, scraper RecipeSource, cat catalog.Catalog) *Enricher {
	return &Enricher{
		gateway:   gateway,
		scraper:   scraper,
		catalog:   cat,
		generator: generator.NewGenerator(gateway),
		enhancer:  step.NewEnhancer(gateway),
		estimator: nutrition.NewEstimator(gateway),
	}
}

// EnrichRecipe 執行完整的充實流程：擷取、食材解析、步驟強化、營養估算、持久化
func (e *Enricher) EnrichRecipe(ctx context.Context, source, input string) (*Summary, error) {
	runID := common.GenerateUUID()
	started := time.Now()
	common.LogInfo("開始充實食譜",
		zap.String("run_id", runID),
		zap.String("source", source),
		zap.String("input", input),
	)

	recipe, err := e.acquire(ctx, source, input)
	if err != nil {
		return nil, fmt.Errorf("acquisition: %w", err)
	}

	resolver := ingredient.NewResolver(e.gateway, e.catalog)
	resolved := resolver.ResolveIngredients(ctx, recipe.RawIngredients)
	grouped := ingredient.GroupSimilarIngredients(resolved)
	common.LogInfo("食材解析完成",
		zap.String("run_id", runID),
		zap.Int("resolved", len(resolved)),
		zap.Int("grouped", len(grouped)),
	)

	steps := e.enhancer.EnhanceSteps(ctx, recipe, grouped)
	coherence := step.AnalyzeStepCoherence(recipe, steps)
	common.LogInfo("步驟強化完成",
		zap.String("run_id", runID),
		zap.Int("steps", len(steps)),
		zap.Int("total_duration", coherence.TotalDuration),
		zap.Float64("avg_difficulty", coherence.AverageDifficulty),
	)
	for _, warning := range coherence.Warnings {
		common.LogWarn("步驟一致性警告",
			zap.String("run_id", runID),
			zap.String("warning", warning),
		)
	}

	profile := e.estimator.EstimateNutrition(ctx, grouped, recipe.Portions)

	recipeID, err := e.persist(ctx, recipe, grouped, steps, profile)
	if err != nil {
		return nil, fmt.Errorf("persistence: %w", err)
	}

	common.LogInfo("食譜充實完成",
		zap.String("run_id", runID),
		zap.String("recipe_id", recipeID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Any("ingredient_cache", resolver.CacheStats()),
	)

	return &Summary{
		EnrichmentID:     runID,
		RecipeID:         recipeID,
		Title:            recipe.Title,
		IngredientsCount: len(grouped),
		StepsCount:       len(steps),
	}, nil
}

// acquire 依來源取得原始食譜
func (e *Enricher) acquire(ctx context.Context, source, input string) (*common.RawRecipe, error) {
	switch source {
	case common.SourceScraping:
		return e.scraper.ScrapeRecipe(ctx, input)
	case common.SourceAI, "ai":
		return e.generateRecipe(ctx, input)
	case common.SourceIdea:
		return e.generator.GenerateRecipe(ctx, input)
	default:
		return nil, common.NewValidationError(fmt.Sprintf("unknown recipe source %q", source))
	}
}

// aiRecipe AI 生成的食譜
type aiRecipe struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RawIngredients  []string `json:"rawIngredients"`
	RawSteps        []string `json:"rawSteps"`
	PreparationTime int      `json:"preparationTime"`
	CookingTime     int      `json:"cookingTime"`
	Portions        int      `json:"portions"`
}

// generateRecipe 以 AI 從頭生成食譜
func (e *Enricher) generateRecipe(ctx context.Context, target string) (*common.RawRecipe, error) {
	result, err := e.gateway.GenerateStructured(ctx, ai.GenerateRecipePrompt(target))
	if err != nil {
		return nil, err
	}

	var generated aiRecipe
	if err := result.Decode(&generated); err != nil {
		return nil, err
	}
	if len(generated.RawIngredients) == 0 || len(generated.RawSteps) == 0 {
		return nil, common.NewValidationError("generated recipe has no ingredients or steps")
	}

	if strings.TrimSpace(generated.Title) == "" {
		generated.Title = common.Capitalize(target)
	}
	if generated.Portions <= 0 {
		generated.Portions = 4
	}

	return &common.RawRecipe{
		Title:           generated.Title,
		Description:     generated.Description,
		RawIngredients:  generated.RawIngredients,
		RawSteps:        generated.RawSteps,
		PreparationTime: generated.PreparationTime,
		CookingTime:     generated.CookingTime,
		Portions:        generated.Portions,
		Source:          common.SourceAI,
		SourceInput:     target,
	}, nil
}

// persist 寫入食譜與所有步驟；任何一筆失敗都讓整個 run 失敗
func (e *Enricher) persist(ctx context.Context, recipe *common.RawRecipe,
	ingredients []common.ResolvedIngredient, steps []common.EnhancedStep,
	profile *common.NutritionProfile) (string, error) {

	refs := make([]catalog.RecipeIngredientRef, 0, len(ingredients))
	for _, ing := range ingredients {
		refs = append(refs, catalog.RecipeIngredientRef{
			IngredientID: ing.ID,
			Quantity:     ing.Quantity,
			Unit:         ing.Unit,
		})
	}

	record := &catalog.RecipeRecord{
		Title:           recipe.Title,
		Description:     recipe.Description,
		PreparationTime: recipe.PreparationTime,
		CookingTime:     recipe.CookingTime,
		Portions:        recipe.Portions,
		Source:          recipe.Source,
		SourceInput:     recipe.SourceInput,
		Nutrition:       profile,
		Ingredients:     refs,
	}

	recipeID, err := e.catalog.SaveRecipe(ctx, record)
	if err != nil {
		return "", fmt.Errorf("save recipe: %w", err)
	}

	for _, s := range steps {
		if _, err := e.catalog.SaveRecipeStep(ctx, &catalog.StepRecord{
			RecipeID:     recipeID,
			EnhancedStep: s,
		}); err != nil {
			return "", fmt.Errorf("save step %d: %w", s.Order, err)
		}
	}

	return recipeID, nil
}

// GetStats 目錄統計
func (e *Enricher) GetStats(ctx context.Context) (*common.CatalogStats, error) {
	return e.catalog.Stats(ctx)
}
