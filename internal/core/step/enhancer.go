package step

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	leadingNumber  = regexp.MustCompile(`^\d+\s*[.)\-:]?\s*`)
	spaceCollapser = regexp.MustCompile(`\s+`)
)

var validStepTypes = map[string]bool{
	common.StepPreparation: true,
	common.StepCooking:     true,
	common.StepResting:     true,
	common.StepAssembly:    true,
	common.StepFinishing:   true,
}

// 各步驟類型的基礎時長（分鐘）
var baseDurations = map[string]int{
	common.StepPreparation: 5,
	common.StepCooking:     15,
	common.StepResting:     30,
	common.StepAssembly:    10,
	common.StepFinishing:   5,
}

// Enhancer 以 AI 強化食譜步驟，並在本地做驗證與估算
type Enhancer struct {
	gateway *ai.Gateway
}

// NewEnhancer 創建步驟強化器
func NewEnhancer(gateway *ai.Gateway) *Enhancer {
	return &Enhancer{gateway: gateway}
}

// aiStep AI 回傳的步驟描述
type aiStep struct {
	Order          int      `json:"order"`
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Temperature    *int     `json:"temperature"`
	CookingTime    *int     `json:"cookingTime"`
	Notes          string   `json:"notes"`
	SubSteps       []string `json:"subSteps"`
	IngredientRefs []string `json:"ingredientRefs"`
	ToolsUsed      []string `json:"toolsUsed"`
}

// EnhanceSteps 強化整份步驟清單
// AI 失敗時退回一比一的保底步驟，絕不讓整個 run 失敗
func (e *Enhancer) EnhanceSteps(ctx context.Context, recipe *common.RawRecipe, ingredients []common.ResolvedIngredient) []common.EnhancedStep {
	if len(recipe.RawSteps) == 0 {
		return []common.EnhancedStep{}
	}

	steps, err := e.enhanceWithAI(ctx, recipe, ingredients)
	if err != nil {
		common.LogWarn("步驟 AI 強化失敗，改用保底步驟",
			zap.String("title", recipe.Title),
			zap.Error(err),
		)
		return fallbackSteps(recipe.RawSteps)
	}
	return steps
}

func (e *Enhancer) enhanceWithAI(ctx context.Context, recipe *common.RawRecipe, ingredients []common.ResolvedIngredient) ([]common.EnhancedStep, error) {
	ingredientsJSON, err := marshalIngredientSummaries(ingredients)
	if err != nil {
		return nil, err
	}
	rawStepsJSON, err := json.Marshal(recipe.RawSteps)
	if err != nil {
		return nil, err
	}

	prompt := ai.EnhanceStepsPrompt(recipe.Title, recipe.Description, ingredientsJSON, string(rawStepsJSON))
	result, err := e.gateway.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Steps []aiStep `json:"steps"`
	}
	if err := result.Decode(&payload); err != nil {
		// 有些模型直接回陣列
		var bare []aiStep
		if errBare := result.Decode(&bare); errBare != nil {
			return nil, err
		}
		payload.Steps = bare
	}
	if len(payload.Steps) == 0 {
		return nil, fmt.Errorf("AI returned no steps")
	}

	known := make(map[string]bool, len(ingredients))
	for _, ing := range ingredients {
		known[ing.Name] = true
	}

	steps := make([]common.EnhancedStep, 0, len(payload.Steps))
	for i, raw := range payload.Steps {
		steps = append(steps, sanitizeStep(raw, i+1, known))
	}
	return steps, nil
}

// sanitizeStep 驗證並補齊單一步驟；order 一律重排為序位
func sanitizeStep(raw aiStep, order int, knownIngredients map[string]bool) common.EnhancedStep {
	step := common.EnhancedStep{
		Order:    order,
		Text:     cleanStepText(raw.Text),
		Type:     raw.Type,
		Notes:    strings.TrimSpace(raw.Notes),
		SubSteps: raw.SubSteps,
	}

	if !validStepTypes[step.Type] {
		step.Type = common.StepPreparation
	}
	if step.SubSteps == nil {
		step.SubSteps = []string{}
	}

	if raw.Temperature != nil && *raw.Temperature > 0 && *raw.Temperature <= 300 {
		step.Temperature = raw.Temperature
	}
	if raw.CookingTime != nil && *raw.CookingTime > 0 && *raw.CookingTime <= 480 {
		step.CookingTime = raw.CookingTime
	}

	// 只保留指向已解析食材的引用
	step.IngredientRefs = []string{}
	for _, ref := range raw.IngredientRefs {
		if knownIngredients[ref] {
			step.IngredientRefs = append(step.IngredientRefs, ref)
		}
	}

	step.ToolsUsed = raw.ToolsUsed
	if step.ToolsUsed == nil {
		step.ToolsUsed = []string{}
	}

	step.EstimatedDuration = estimateDuration(step)
	step.Difficulty = estimateDifficulty(step)
	return step
}

// cleanStepText 去編號、壓空白、首字大寫
func cleanStepText(text string) string {
	text = strings.TrimSpace(text)
	text = leadingNumber.ReplaceAllString(text, "")
	text = spaceCollapser.ReplaceAllString(text, " ")
	return common.Capitalize(text)
}

// estimateDuration 依類型與內文關鍵字估算時長，夾在 1–120 分鐘
func estimateDuration(step common.EnhancedStep) int {
	duration := baseDurations[step.Type]
	if duration == 0 {
		duration = baseDurations[common.StepPreparation]
	}

	if step.CookingTime != nil && *step.CookingTime > duration {
		duration = *step.CookingTime
	}

	text := strings.ToLower(step.Text)
	if strings.Contains(text, "whisk") || strings.Contains(text, "mix") {
		duration += 3
	}
	if strings.Contains(text, "chop") || strings.Contains(text, "cut") {
		duration += 5
	}
	if strings.Contains(text, "simmer") || strings.Contains(text, "reduce") {
		duration += 10
	}

	if duration < 1 {
		duration = 1
	}
	if duration > 120 {
		duration = 120
	}
	return duration
}

// estimateDifficulty 依技法、溫度與時長估算難度 1–5
func estimateDifficulty(step common.EnhancedStep) int {
	difficulty := 1
	text := strings.ToLower(step.Text)

	if strings.Contains(text, "temper") || strings.Contains(text, "emuls") {
		difficulty += 2
	}
	if strings.Contains(text, "flamb") || strings.Contains(text, "caramel") {
		difficulty += 2
	}
	if strings.Contains(text, "clarify") || strings.Contains(text, "mount") {
		difficulty++
	}
	if step.Temperature != nil && *step.Temperature > 200 {
		difficulty++
	}
	if step.CookingTime != nil && *step.CookingTime > 60 {
		difficulty++
	}
	for _, tool := range step.ToolsUsed {
		lower := strings.ToLower(tool)
		if strings.Contains(lower, "mandoline") || strings.Contains(lower, "thermomix") {
			difficulty++
			break
		}
	}

	if difficulty > 5 {
		difficulty = 5
	}
	return difficulty
}

// fallbackSteps 一行原始步驟對應一個保底步驟
func fallbackSteps(rawSteps []string) []common.EnhancedStep {
	steps := make([]common.EnhancedStep, 0, len(rawSteps))
	for i, raw := range rawSteps {
		steps = append(steps, common.EnhancedStep{
			Order:             i + 1,
			Text:              cleanStepText(raw),
			Type:              common.StepPreparation,
			SubSteps:          []string{},
			IngredientRefs:    []string{},
			ToolsUsed:         []string{},
			EstimatedDuration: 10,
			Difficulty:        2,
		})
	}
	return steps
}

// marshalIngredientSummaries 只給 AI 需要的欄位
func marshalIngredientSummaries(ingredients []common.ResolvedIngredient) (string, error) {
	type summary struct {
		Name     string   `json:"name"`
		Quantity *float64 `json:"quantity"`
		Unit     *string  `json:"unit"`
	}

	summaries := make([]summary, 0, len(ingredients))
	for _, ing := range ingredients {
		summaries = append(summaries, summary{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CoherenceReport 全體步驟的一致性摘要
type CoherenceReport struct {
	TotalDuration     int            `json:"totalDuration"`
	AverageDifficulty float64        `json:"averageDifficulty"`
	TypeCounts        map[string]int `json:"typeCounts"`
	Warnings          []string       `json:"warnings"`
}

// AnalyzeStepCoherence 檢查強化後步驟的整體一致性
func AnalyzeStepCoherence(recipe *common.RawRecipe, steps []common.EnhancedStep) CoherenceReport {
	report := CoherenceReport{
		TypeCounts: map[string]int{},
		Warnings:   []string{},
	}

	difficultySum := 0
	for _, s := range steps {
		report.TotalDuration += s.EstimatedDuration
		report.TypeCounts[s.Type]++
		difficultySum += s.Difficulty

		if s.Temperature != nil && s.Type != common.StepCooking {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("step %d has a temperature but type %q", s.Order, s.Type))
		}
	}
	if len(steps) > 0 {
		report.AverageDifficulty = float64(difficultySum) / float64(len(steps))
	}

	if len(steps) < len(recipe.RawSteps) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("enhanced steps (%d) fewer than raw steps (%d)", len(steps), len(recipe.RawSteps)))
	}
	if recipe.CookingTime > 0 && report.TypeCounts[common.StepCooking] == 0 {
		report.Warnings = append(report.Warnings, "recipe declares a cooking time but no step is typed cooking")
	}
	if report.TotalDuration > 300 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("estimated total duration %d min is unusually long", report.TotalDuration))
	}
	if report.AverageDifficulty > 4 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("average difficulty %.1f suggests an expert-only recipe", report.AverageDifficulty))
	}

	return report
}
