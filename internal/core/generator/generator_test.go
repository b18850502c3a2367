package generator_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/core/generator"
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
	routes  map[string]string
	prompts []string
}

func (p *routingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	for marker, response := range p.routes {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return "", fmt.Errorf("no route for prompt")
}

func (p *routingProvider) Name() string { return "routing" }

func newGenerator(p *routingProvider) *generator.Generator {
	return generator.NewGenerator(ai.NewGatewayWithProvider(p, config.AIConfig{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}))
}

const ideaResponse = `{
	"name": "Carrot velouté",
	"description": "Smooth carrot soup",
	"type": "starter",
	"difficulty": "easy",
	"preparationTime": 10,
	"portions": 4
}`

const ingredientsResponse = `[
	{"name": "carrot", "quantity": 500, "unit": "g", "notes": "peeled"},
	{"name": "onion", "quantity": 1, "unit": "unit"},
	{"name": "", "quantity": 10, "unit": "g"}
]`

const stepsResponse = `[
	{"order": 2, "text": "Simmer until tender", "type": "cooking", "cookingTime": 25},
	{"order": 1, "text": "Chop the carrots and onion", "type": "preparation"}
]`

func happyRoutes() map[string]string {
	return map[string]string{
		"recipe idea":                    ideaResponse,
		"list of ingredients":            ingredientsResponse,
		"generate the preparation steps": stepsResponse,
	}
}

func TestGenerateRecipe_StagedFlow(t *testing.T) {
	p := &routingProvider{routes: happyRoutes()}

	recipe, err := newGenerator(p).GenerateRecipe(context.Background(), "autumn vegetables")

	require.NoError(t, err)
	assert.Equal(t, "Carrot velouté", recipe.Title)
	assert.Equal(t, "Smooth carrot soup", recipe.Description)
	assert.Equal(t, common.SourceIdea, recipe.Source)
	assert.Equal(t, "autumn vegetables", recipe.SourceInput)
	assert.Equal(t, 10, recipe.PreparationTime)
	assert.Equal(t, 4, recipe.Portions)

	// 無效項目略過；行格式可供行解析器處理
	assert.Equal(t, []string{"500g of carrot", "1 onion"}, recipe.RawIngredients)

	// 步驟依 order 排序；烹煮時間加總
	assert.Equal(t, []string{"Chop the carrots and onion", "Simmer until tender"}, recipe.RawSteps)
	assert.Equal(t, 25, recipe.CookingTime)
}

func TestGenerateRecipe_SeedReachesIdeaPrompt(t *testing.T) {
	p := &routingProvider{routes: happyRoutes()}

	_, err := newGenerator(p).GenerateRecipe(context.Background(), "leftover rice")

	require.NoError(t, err)
	require.NotEmpty(t, p.prompts)
	assert.Contains(t, p.prompts[0], "leftover rice")
}

func TestGenerateRecipe_IdeaWithoutNameFails(t *testing.T) {
	routes := happyRoutes()
	routes["recipe idea"] = `{"description": "something"}`
	p := &routingProvider{routes: routes}

	_, err := newGenerator(p).GenerateRecipe(context.Background(), "")

	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Contains(t, err.Error(), "recipe idea generation")
}

func TestGenerateRecipe_NoValidIngredientsFails(t *testing.T) {
	routes := happyRoutes()
	routes["list of ingredients"] = `[{"name": "carrot", "quantity": -5, "unit": "g"}]`
	p := &routingProvider{routes: routes}

	_, err := newGenerator(p).GenerateRecipe(context.Background(), "")

	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Contains(t, err.Error(), "ingredient list generation")
}

func TestGenerateRecipe_IdeaDefaultsBackfilled(t *testing.T) {
	routes := happyRoutes()
	routes["recipe idea"] = `{"name": "Mystery dish", "description": "Improvised"}`
	p := &routingProvider{routes: routes}

	recipe, err := newGenerator(p).GenerateRecipe(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 15, recipe.PreparationTime)
	assert.Equal(t, 4, recipe.Portions)
}
