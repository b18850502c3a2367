package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/core/catalog"
	"recipe-enricher/internal/core/pipeline"
	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	common.Logger = zap.NewNop()
}

// routingProvider 依 prompt 內容路由到對應的回應
type routingProvider struct {
	routes map[string]string
	err    error
}

func (p *routingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	for marker, response := range p.routes {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return "", fmt.Errorf("no route for prompt")
}

func (p *routingProvider) Name() string { return "routing" }

// fakeScraper 固定回傳一份原始食譜
type fakeScraper struct {
	recipe *common.RawRecipe
	err    error
}

func (f *fakeScraper) ScrapeRecipe(ctx context.Context, url string) (*common.RawRecipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recipe, nil
}

// fakeCatalog 記憶體目錄，記錄持久化內容
type fakeCatalog struct {
	byName       map[string]*common.CatalogIngredient
	savedRecipes []*catalog.RecipeRecord
	savedSteps   []*catalog.StepRecord
	recipeErr    error
	stepErr      error
	nextID       int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{byName: map[string]*common.CatalogIngredient{}}
}

func (f *fakeCatalog) FindIngredientByName(ctx context.Context, name string) (*common.CatalogIngredient, error) {
	if ing, ok := f.byName[name]; ok {
		return ing, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalog) FindIngredientByDisplayName(ctx context.Context, displayName string) (*common.CatalogIngredient, error) {
	return nil, common.ErrNotFound
}

func (f *fakeCatalog) SaveIngredient(ctx context.Context, ing *common.CatalogIngredient) (string, error) {
	f.nextID++
	id := fmt.Sprintf("ing-%d", f.nextID)
	saved := *ing
	saved.ID = id
	f.byName[ing.Name] = &saved
	return id, nil
}

func (f *fakeCatalog) SaveRecipe(ctx context.Context, recipe *catalog.RecipeRecord) (string, error) {
	if f.recipeErr != nil {
		return "", f.recipeErr
	}
	f.savedRecipes = append(f.savedRecipes, recipe)
	return "recipe-1", nil
}

func (f *fakeCatalog) SaveRecipeStep(ctx context.Context, step *catalog.StepRecord) (string, error) {
	if f.stepErr != nil {
		return "", f.stepErr
	}
	f.savedSteps = append(f.savedSteps, step)
	return fmt.Sprintf("step-%d", len(f.savedSteps)), nil
}

func (f *fakeCatalog) Stats(ctx context.Context) (*common.CatalogStats, error) {
	return &common.CatalogStats{Recipes: len(f.savedRecipes)}, nil
}

func newEnricher(p *routingProvider, s *fakeScraper, c *fakeCatalog) *pipeline.Enricher {
	gateway := ai.NewGatewayWithProvider(p, config.AIConfig{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	return pipeline.NewEnricher(gateway, s, c)
}

func scrapedRecipe() *common.RawRecipe {
	return &common.RawRecipe{
		Title:          "Carrot soup",
		Description:    "Simple soup",
		RawIngredients: []string{"200g of carrots", "1 onion"},
		RawSteps:       []string{"Chop the carrots", "Simmer for 20 minutes"},
		CookingTime:    20,
		Portions:       4,
		Source:         common.SourceScraping,
		SourceInput:    "https://example.com/soup",
	}
}

func happyRoutes() map[string]string {
	return map[string]string{
		"Raw steps": `{"steps":[
			{"order":1,"text":"Chop the carrots","type":"preparation","ingredientRefs":["carrot"]},
			{"order":2,"text":"Simmer for 20 minutes","type":"cooking","cookingTime":20}
		]}`,
		"nutritionalValues": `{"nutritionalValues":{"kcalPer100g":95},"nutriscore":"A"}`,
	}
}

func TestEnrichRecipe_ScrapingHappyPath(t *testing.T) {
	cat := newFakeCatalog()
	cat.byName["carrot"] = &common.CatalogIngredient{ID: "ing-carrot", Name: "carrot", Type: "vegetable"}
	cat.byName["onion"] = &common.CatalogIngredient{ID: "ing-onion", Name: "onion", Type: "vegetable"}

	e := newEnricher(&routingProvider{routes: happyRoutes()}, &fakeScraper{recipe: scrapedRecipe()}, cat)
	summary, err := e.EnrichRecipe(context.Background(), common.SourceScraping, "https://example.com/soup")

	require.NoError(t, err)
	assert.NotEmpty(t, summary.EnrichmentID)
	assert.Equal(t, "recipe-1", summary.RecipeID)
	assert.Equal(t, "Carrot soup", summary.Title)
	assert.Equal(t, 2, summary.IngredientsCount)
	assert.Equal(t, 2, summary.StepsCount)

	require.Len(t, cat.savedRecipes, 1)
	saved := cat.savedRecipes[0]
	assert.Equal(t, "Carrot soup", saved.Title)
	require.NotNil(t, saved.Nutrition)
	assert.Equal(t, 95.0, saved.Nutrition.KcalPer100g)
	assert.Equal(t, "A", saved.Nutrition.Nutriscore)
	require.Len(t, saved.Ingredients, 2)
	assert.Equal(t, "ing-carrot", saved.Ingredients[0].IngredientID)

	require.Len(t, cat.savedSteps, 2)
	assert.Equal(t, "recipe-1", cat.savedSteps[0].RecipeID)
	assert.Equal(t, 1, cat.savedSteps[0].Order)
}

func TestEnrichRecipe_AcquisitionFailureIsFatal(t *testing.T) {
	e := newEnricher(&routingProvider{routes: happyRoutes()},
		&fakeScraper{err: errors.New("scraper unreachable")}, newFakeCatalog())

	_, err := e.EnrichRecipe(context.Background(), common.SourceScraping, "https://example.com/soup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquisition:")
	assert.Contains(t, err.Error(), "scraper unreachable")
}

func TestEnrichRecipe_PersistenceFailureIsFatal(t *testing.T) {
	cat := newFakeCatalog()
	cat.byName["carrot"] = &common.CatalogIngredient{ID: "ing-carrot", Name: "carrot"}
	cat.byName["onion"] = &common.CatalogIngredient{ID: "ing-onion", Name: "onion"}
	cat.recipeErr = errors.New("catalog down")

	e := newEnricher(&routingProvider{routes: happyRoutes()}, &fakeScraper{recipe: scrapedRecipe()}, cat)
	_, err := e.EnrichRecipe(context.Background(), common.SourceScraping, "https://example.com/soup")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistence:")
}

func TestEnrichRecipe_MiddleStageFailuresDegrade(t *testing.T) {
	// 所有 AI 呼叫失敗：食材走 fallback、步驟走保底、營養走預設輪廓，run 仍完成
	cat := newFakeCatalog()
	e := newEnricher(&routingProvider{err: errors.New("model unavailable")},
		&fakeScraper{recipe: scrapedRecipe()}, cat)

	summary, err := e.EnrichRecipe(context.Background(), common.SourceScraping, "https://example.com/soup")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.IngredientsCount)
	assert.Equal(t, 2, summary.StepsCount)

	require.Len(t, cat.savedRecipes, 1)
	require.NotNil(t, cat.savedRecipes[0].Nutrition)
	assert.Equal(t, "C", cat.savedRecipes[0].Nutrition.Nutriscore)
}

func TestEnrichRecipe_AIGeneratedSource(t *testing.T) {
	routes := happyRoutes()
	routes["expert chef"] = `{
		"title": "Carrot soup",
		"description": "Generated",
		"rawIngredients": ["200g of carrots", "1 onion"],
		"rawSteps": ["Chop the carrots", "Simmer for 20 minutes"],
		"portions": 4
	}`

	cat := newFakeCatalog()
	cat.byName["carrot"] = &common.CatalogIngredient{ID: "ing-carrot", Name: "carrot"}
	cat.byName["onion"] = &common.CatalogIngredient{ID: "ing-onion", Name: "onion"}

	e := newEnricher(&routingProvider{routes: routes}, &fakeScraper{}, cat)
	summary, err := e.EnrichRecipe(context.Background(), common.SourceAI, "carrot soup")

	require.NoError(t, err)
	assert.Equal(t, "Carrot soup", summary.Title)
	require.Len(t, cat.savedRecipes, 1)
	assert.Equal(t, common.SourceAI, cat.savedRecipes[0].Source)
}

func TestEnrichRecipe_IdeaSource(t *testing.T) {
	routes := happyRoutes()
	routes["recipe idea"] = `{
		"name": "Carrot velouté",
		"description": "Smooth carrot soup",
		"type": "starter",
		"difficulty": "easy",
		"preparationTime": 10,
		"portions": 4
	}`
	routes["list of ingredients"] = `[
		{"name": "carrot", "quantity": 500, "unit": "g"},
		{"name": "onion", "quantity": 1, "unit": "unit"}
	]`
	routes["generate the preparation steps"] = `[
		{"order": 1, "text": "Chop the carrots", "type": "preparation"},
		{"order": 2, "text": "Simmer for 20 minutes", "type": "cooking", "cookingTime": 20}
	]`

	cat := newFakeCatalog()
	cat.byName["carrot"] = &common.CatalogIngredient{ID: "ing-carrot", Name: "carrot"}
	cat.byName["onion"] = &common.CatalogIngredient{ID: "ing-onion", Name: "onion"}

	e := newEnricher(&routingProvider{routes: routes}, &fakeScraper{}, cat)
	summary, err := e.EnrichRecipe(context.Background(), common.SourceIdea, "autumn vegetables")

	require.NoError(t, err)
	assert.Equal(t, "Carrot velouté", summary.Title)
	assert.Equal(t, 2, summary.IngredientsCount)
	assert.Equal(t, 2, summary.StepsCount)
	require.Len(t, cat.savedRecipes, 1)
	assert.Equal(t, common.SourceIdea, cat.savedRecipes[0].Source)
	assert.Equal(t, "autumn vegetables", cat.savedRecipes[0].SourceInput)
}

func TestEnrichRecipe_UnknownSource(t *testing.T) {
	e := newEnricher(&routingProvider{routes: happyRoutes()}, &fakeScraper{}, newFakeCatalog())

	_, err := e.EnrichRecipe(context.Background(), "carrier-pigeon", "whatever")

	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
}

func TestGetStats(t *testing.T) {
	cat := newFakeCatalog()
	cat.byName["carrot"] = &common.CatalogIngredient{ID: "ing-carrot", Name: "carrot"}
	cat.byName["onion"] = &common.CatalogIngredient{ID: "ing-onion", Name: "onion"}

	e := newEnricher(&routingProvider{routes: happyRoutes()}, &fakeScraper{recipe: scrapedRecipe()}, cat)
	_, err := e.EnrichRecipe(context.Background(), common.SourceScraping, "https://example.com/soup")
	require.NoError(t, err)

	stats, err := e.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Recipes)
}
