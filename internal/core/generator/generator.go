package generator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// 構想缺欄位時的預設值
const (
	defaultDifficulty      = "medium"
	defaultPreparationTime = 15
	defaultPortions        = 4
)

// Generator 由靈感種子分階段生成食譜：構想、食材清單、準備步驟
// 產出的原始食譜交給一般的充實流程處理
type Generator struct {
	gateway *ai.Gateway
}

// NewGenerator 創建分階段食譜生成器
func NewGenerator(gateway *ai.Gateway) *Generator {
	return &Generator{gateway: gateway}
}

// recipeIdea 食譜構想
type recipeIdea struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	Difficulty      string `json:"difficulty"`
	PreparationTime int    `json:"preparationTime"`
	Portions        int    `json:"portions"`
}

// generatedIngredient AI 生成的食材清單項目
type generatedIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// generatedStep AI 生成的準備步驟
type generatedStep struct {
	Order       int    `json:"order"`
	Text        string `json:"text"`
	Type        string `json:"type"`
	CookingTime *int   `json:"cookingTime"`
	Temperature *int   `json:"temperature"`
	Notes       string `json:"notes"`
}

// GenerateRecipe 依序生成構想、食材與步驟，組成原始食譜
// 任一階段失敗即回傳錯誤，由呼叫端決定是否致命
func (g *Generator) GenerateRecipe(ctx context.Context, seed string) (*common.RawRecipe, error) {
	idea, err := g.generateIdea(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("recipe idea generation: %w", err)
	}
	common.LogInfo("食譜構想已生成",
		zap.String("name", idea.Name),
		zap.String("seed", seed),
	)

	ingredients, err := g.generateIngredients(ctx, idea)
	if err != nil {
		return nil, fmt.Errorf("ingredient list generation: %w", err)
	}

	steps, err := g.generateSteps(ctx, idea, ingredients)
	if err != nil {
		return nil, fmt.Errorf("step list generation: %w", err)
	}

	return g.assemble(idea, ingredients, steps, seed), nil
}

func (g *Generator) generateIdea(ctx context.Context, seed string) (*recipeIdea, error) {
	result, err := g.gateway.GenerateStructured(ctx, ai.GenerateRecipeIdeaPrompt(seed))
	if err != nil {
		return nil, err
	}

	var idea recipeIdea
	if err := result.Decode(&idea); err != nil {
		return nil, err
	}
	if idea.Name == "" {
		return nil, common.NewValidationError("generated recipe idea has no name")
	}

	if idea.Difficulty == "" {
		idea.Difficulty = defaultDifficulty
	}
	if idea.PreparationTime <= 0 {
		idea.PreparationTime = defaultPreparationTime
	}
	if idea.Portions <= 0 {
		idea.Portions = defaultPortions
	}
	return &idea, nil
}

func (g *Generator) generateIngredients(ctx context.Context, idea *recipeIdea) ([]generatedIngredient, error) {
	result, err := g.gateway.GenerateStructured(ctx,
		ai.GenerateIngredientListPrompt(idea.Name, idea.Description, idea.Portions))
	if err != nil {
		return nil, err
	}

	var raw []generatedIngredient
	if err := result.Decode(&raw); err != nil {
		return nil, err
	}

	ingredients := make([]generatedIngredient, 0, len(raw))
	for _, ing := range raw {
		if ing.Name == "" || ing.Quantity <= 0 || ing.Unit == "" {
			common.LogWarn("生成的食材項目無效，已略過",
				zap.String("recipe", idea.Name),
				zap.String("ingredient", ing.Name),
			)
			continue
		}
		ingredients = append(ingredients, ing)
	}
	if len(ingredients) == 0 {
		return nil, common.NewValidationError(
			fmt.Sprintf("no valid ingredients generated for %q", idea.Name))
	}
	return ingredients, nil
}

func (g *Generator) generateSteps(ctx context.Context, idea *recipeIdea, ingredients []generatedIngredient) ([]generatedStep, error) {
	result, err := g.gateway.GenerateStructured(ctx,
		ai.GenerateStepListPrompt(idea.Name, idea.Description,
			describeIngredients(ingredients), idea.Difficulty, idea.Portions))
	if err != nil {
		return nil, err
	}

	var raw []generatedStep
	if err := result.Decode(&raw); err != nil {
		return nil, err
	}

	steps := make([]generatedStep, 0, len(raw))
	for _, s := range raw {
		if s.Text == "" {
			continue
		}
		steps = append(steps, s)
	}
	if len(steps) == 0 {
		return nil, common.NewValidationError(
			fmt.Sprintf("no valid steps generated for %q", idea.Name))
	}

	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps, nil
}

// assemble 將三個階段的產出組成原始食譜
func (g *Generator) assemble(idea *recipeIdea, ingredients []generatedIngredient, steps []generatedStep, seed string) *common.RawRecipe {
	lines := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, formatIngredientLine(ing))
	}

	texts := make([]string, 0, len(steps))
	cookingTime := 0
	for _, s := range steps {
		texts = append(texts, s.Text)
		if s.CookingTime != nil && *s.CookingTime > 0 {
			cookingTime += *s.CookingTime
		}
	}

	return &common.RawRecipe{
		Title:           idea.Name,
		Description:     idea.Description,
		RawIngredients:  lines,
		RawSteps:        texts,
		PreparationTime: idea.PreparationTime,
		CookingTime:     cookingTime,
		Portions:        idea.Portions,
		Source:          common.SourceIdea,
		SourceInput:     seed,
	}
}

// formatIngredientLine 把生成的食材項目寫成可供行解析器處理的文字
func formatIngredientLine(ing generatedIngredient) string {
	qty := strconv.FormatFloat(ing.Quantity, 'f', -1, 64)
	if ing.Unit == "unit" {
		return fmt.Sprintf("%s %s", qty, ing.Name)
	}
	return fmt.Sprintf("%s%s of %s", qty, ing.Unit, ing.Name)
}

func describeIngredients(ingredients []generatedIngredient) string {
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		parts = append(parts, formatIngredientLine(ing))
	}
	return strings.Join(parts, ", ")
}
