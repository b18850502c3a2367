package nutrition

import (
	"context"
	"encoding/json"

	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// 每個欄位獨立套用的預設值（每 100g，對應一般家常菜的量級）
const (
	defaultKcal          = 200
	defaultKj            = 837
	defaultProteins      = 8
	defaultLipids        = 10
	defaultSaturated     = 4
	defaultCarbohydrates = 25
	defaultSimpleSugars  = 5
	defaultFibres        = 3
	defaultSalt          = 1
	defaultOils          = 5
	defaultPnns          = 0

	defaultNutriscore = "C"
)

// 每 100g 數值的合理上限，超出視為模型幻覺
const maxPer100g = 1000

var validNutriscores = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true,
}

// Estimator 以 AI 估算食譜營養值
type Estimator struct {
	gateway *ai.Gateway
}

// NewEstimator 創建營養估算器
func NewEstimator(gateway *ai.Gateway) *Estimator {
	return &Estimator{gateway: gateway}
}

// aiNutrition AI 回傳的營養估算
// 欄位用指標以區分「缺漏」與「為零」
type aiNutrition struct {
	NutritionalValues struct {
		KcalPer100g                *float64 `json:"kcalPer100g"`
		KjPer100g                  *float64 `json:"kjPer100g"`
		ProteinsPer100g            *float64 `json:"proteinsPer100g"`
		LipidsPer100g              *float64 `json:"lipidsPer100g"`
		SaturatedFattyAcidsPer100g *float64 `json:"saturatedFattyAcidsPer100g"`
		CarbohydratesPer100g       *float64 `json:"carbohydratesPer100g"`
		SimpleSugarsPer100g        *float64 `json:"simpleSugarsPer100g"`
		FibresPer100g              *float64 `json:"fibresPer100g"`
		SaltPer100g                *float64 `json:"saltPer100g"`
		PnnsFruitPer100g           *float64 `json:"pnnsFruitPer100g"`
		PnnsVegetablePer100g       *float64 `json:"pnnsVegetablePer100g"`
		OilsPer100g                *float64 `json:"oilsPer100g"`
		PnnsNutsPer100g            *float64 `json:"pnnsNutsPer100g"`
		PnnsDriedVegetablePer100g  *float64 `json:"pnnsDriedVegetablePer100g"`
	} `json:"nutritionalValues"`
	Nutriscore string `json:"nutriscore"`
}

// EstimateNutrition 估算整份食譜的營養值
// AI 失敗時回傳完整預設輪廓，絕不讓整個 run 失敗
func (e *Estimator) EstimateNutrition(ctx context.Context, ingredients []common.ResolvedIngredient, portions int) *common.NutritionProfile {
	profile, err := e.estimateWithAI(ctx, ingredients, portions)
	if err != nil {
		common.LogWarn("營養 AI 估算失敗，改用預設輪廓",
			zap.Int("ingredients", len(ingredients)),
			zap.Error(err),
		)
		return DefaultProfile()
	}
	return profile
}

func (e *Estimator) estimateWithAI(ctx context.Context, ingredients []common.ResolvedIngredient, portions int) (*common.NutritionProfile, error) {
	type summary struct {
		Name     string   `json:"name"`
		Quantity *float64 `json:"quantity"`
		Unit     *string  `json:"unit"`
		Type     string   `json:"type"`
	}

	summaries := make([]summary, 0, len(ingredients))
	for _, ing := range ingredients {
		name := ing.DisplayName
		if name == "" {
			name = ing.Name
		}
		summaries = append(summaries, summary{
			Name:     name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Type:     ing.Type,
		})
	}
	ingredientsJSON, err := json.Marshal(summaries)
	if err != nil {
		return nil, err
	}

	result, err := e.gateway.GenerateStructured(ctx, ai.ComputeNutritionPrompt(string(ingredientsJSON), portions))
	if err != nil {
		return nil, err
	}

	var estimate aiNutrition
	if err := result.Decode(&estimate); err != nil {
		return nil, err
	}

	v := estimate.NutritionalValues
	profile := &common.NutritionProfile{
		KcalPer100g:                sanitize(v.KcalPer100g, defaultKcal),
		KjPer100g:                  sanitize(v.KjPer100g, defaultKj),
		ProteinsPer100g:            sanitize(v.ProteinsPer100g, defaultProteins),
		LipidsPer100g:              sanitize(v.LipidsPer100g, defaultLipids),
		SaturatedFattyAcidsPer100g: sanitize(v.SaturatedFattyAcidsPer100g, defaultSaturated),
		CarbohydratesPer100g:       sanitize(v.CarbohydratesPer100g, defaultCarbohydrates),
		SimpleSugarsPer100g:        sanitize(v.SimpleSugarsPer100g, defaultSimpleSugars),
		FibresPer100g:              sanitize(v.FibresPer100g, defaultFibres),
		SaltPer100g:                sanitize(v.SaltPer100g, defaultSalt),
		PnnsFruitPer100g:           sanitize(v.PnnsFruitPer100g, defaultPnns),
		PnnsVegetablePer100g:       sanitize(v.PnnsVegetablePer100g, defaultPnns),
		OilsPer100g:                sanitize(v.OilsPer100g, defaultOils),
		PnnsNutsPer100g:            sanitize(v.PnnsNutsPer100g, defaultPnns),
		PnnsDriedVegetablePer100g:  sanitize(v.PnnsDriedVegetablePer100g, defaultPnns),
		Nutriscore:                 sanitizeNutriscore(estimate.Nutriscore),
	}
	return profile, nil
}

// sanitize 欄位缺漏或超出 [0, 1000] 時用該欄位的預設值
func sanitize(value *float64, fallback float64) float64 {
	if value == nil || *value < 0 || *value > maxPer100g {
		return fallback
	}
	return *value
}

func sanitizeNutriscore(score string) string {
	if validNutriscores[score] {
		return score
	}
	return defaultNutriscore
}

// DefaultProfile 完整預設營養輪廓
func DefaultProfile() *common.NutritionProfile {
	return &common.NutritionProfile{
		KcalPer100g:                defaultKcal,
		KjPer100g:                  defaultKj,
		ProteinsPer100g:            defaultProteins,
		LipidsPer100g:              defaultLipids,
		SaturatedFattyAcidsPer100g: defaultSaturated,
		CarbohydratesPer100g:       defaultCarbohydrates,
		SimpleSugarsPer100g:        defaultSimpleSugars,
		FibresPer100g:              defaultFibres,
		SaltPer100g:                defaultSalt,
		PnnsFruitPer100g:           defaultPnns,
		PnnsVegetablePer100g:       defaultPnns,
		OilsPer100g:                defaultOils,
		PnnsNutsPer100g:            defaultPnns,
		PnnsDriedVegetablePer100g:  defaultPnns,
		Nutriscore:                 defaultNutriscore,
	}
}
