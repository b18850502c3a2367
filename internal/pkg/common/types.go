package common

import "strings"

// 食譜來源
const (
	SourceScraping = "scraping"
	SourceAI       = "IA"
	SourceIdea     = "idea"
)

// RawRecipe 原始食譜
// 由來源擷取階段建立，單次 enrichment run 內不再修改
type RawRecipe struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RawIngredients  []string `json:"rawIngredients"`
	RawSteps        []string `json:"rawSteps"`
	PreparationTime int      `json:"preparationTime"`
	CookingTime     int      `json:"cookingTime"`
	Portions        int      `json:"portions"`
	Source          string   `json:"source"`
	SourceInput     string   `json:"sourceInput"`
}

// ParsedIngredientLine 單行食材文字的確定性解析結果
type ParsedIngredientLine struct {
	OriginalText string   `json:"originalText"`
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	RawQuantity  string   `json:"rawQuantity"`
	RawUnit      string   `json:"rawUnit"`
}

// ResolvedIngredient 已解析並對應到目錄的食材
// Degraded 表示這筆是合成 fallback，不是正常解析出來的
type ResolvedIngredient struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	DisplayName    string   `json:"displayName"`
	Type           string   `json:"type"`
	Quantity       *float64 `json:"quantity"`
	Unit           *string  `json:"unit"`
	StoreShelf     string   `json:"storeShelf"`
	Seasons        []string `json:"seasons"`
	FrozenOrCanned bool     `json:"frozenOrCanned"`
	WithPork       bool     `json:"withPork"`
	OriginalText   string   `json:"originalText"`
	Occurrences    int      `json:"occurrences,omitempty"`
	Degraded       bool     `json:"degraded,omitempty"`
}

// 步驟類型的封閉集合
const (
	StepPreparation = "preparation"
	StepCooking     = "cooking"
	StepResting     = "resting"
	StepAssembly    = "assembly"
	StepFinishing   = "finishing"
)

// EnhancedStep 強化後的食譜步驟
type EnhancedStep struct {
	Order             int      `json:"order"`
	Text              string   `json:"text"`
	Type              string   `json:"type"`
	Temperature       *int     `json:"temperature"` // 1–300°C，否則 null
	CookingTime       *int     `json:"cookingTime"` // 1–480 分鐘，否則 null
	Notes             string   `json:"notes"`
	SubSteps          []string `json:"subSteps"`
	IngredientRefs    []string `json:"ingredientRefs"`
	ToolsUsed         []string `json:"toolsUsed"`
	EstimatedDuration int      `json:"estimatedDuration"` // 1–120 分鐘
	Difficulty        int      `json:"difficulty"`        // 1–5
}

// NutritionProfile 每 100g 營養值，外加 Nutri-Score (A–E)
type NutritionProfile struct {
	KcalPer100g                float64 `json:"kcalPer100g"`
	KjPer100g                  float64 `json:"kjPer100g"`
	ProteinsPer100g            float64 `json:"proteinsPer100g"`
	LipidsPer100g              float64 `json:"lipidsPer100g"`
	SaturatedFattyAcidsPer100g float64 `json:"saturatedFattyAcidsPer100g"`
	CarbohydratesPer100g       float64 `json:"carbohydratesPer100g"`
	SimpleSugarsPer100g        float64 `json:"simpleSugarsPer100g"`
	FibresPer100g              float64 `json:"fibresPer100g"`
	SaltPer100g                float64 `json:"saltPer100g"`
	PnnsFruitPer100g           float64 `json:"pnnsFruitPer100g"`
	PnnsVegetablePer100g       float64 `json:"pnnsVegetablePer100g"`
	OilsPer100g                float64 `json:"oilsPer100g"`
	PnnsNutsPer100g            float64 `json:"pnnsNutsPer100g"`
	PnnsDriedVegetablePer100g  float64 `json:"pnnsDriedVegetablePer100g"`
	Nutriscore                 string  `json:"nutriscore"`
}

// 抓取任務狀態
const (
	JobQueued    = "Queued"
	JobRunning   = "Running"
	JobCompleted = "Completed"
	JobFailed    = "Failed"
)

// ScrapeJob 遠端抓取服務的任務描述
type ScrapeJob struct {
	ID       string              `json:"id"`
	URL      string              `json:"url"`
	Elements map[string]string   `json:"elements"`
	Status   string              `json:"status"`
	Result   map[string][]string `json:"result"`
	Error    string              `json:"error"`
}

// CatalogIngredient 目錄中的食材實體
type CatalogIngredient struct {
	ID             string   `json:"id,omitempty"`
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

// CatalogStats 目錄統計
type CatalogStats struct {
	Recipes     int `json:"recipes"`
	Ingredients int `json:"ingredients"`
	Steps       int `json:"steps"`
}

// Capitalize 首字母大寫
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
