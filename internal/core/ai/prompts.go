package ai

import "fmt"

// 各 pipeline 階段共用的 prompt 模板

// GenerateRecipePrompt 依主題生成完整食譜
func GenerateRecipePrompt(target string) string {
	return fmt.Sprintf(`You are an expert chef. Generate a complete recipe based on this theme or dish type: "%s".

Respond ONLY with a JSON object in the following format, without any text before or after:

{
  "title": "Recipe name",
  "description": "Appetizing description of the recipe",
  "rawIngredients": [
    "250g flour",
    "2 eggs",
    "200ml milk"
  ],
  "rawSteps": [
    "Mix flour and eggs",
    "Add milk gradually"
  ],
  "preparationTime": 15,
  "cookingTime": 30,
  "portions": 4,
  "difficulty": "Easy"
}

Make sure that:
- Ingredients include precise quantities
- Steps are in logical order
- Times are realistic
- Difficulty is appropriate`, target)
}

// GenerateRecipeIdeaPrompt 由靈感種子生成食譜構想
func GenerateRecipeIdeaPrompt(seed string) string {
	prompt := `Generate a simple recipe idea in JSON format, without any text before or after:

{
  "name": "Recipe name",
  "description": "Short description",
  "type": "Dish type",
  "difficulty": "easy|medium|hard",
  "preparationTime": 15,
  "portions": 4
}

The recipe should be simple and achievable with common ingredients.`

	if seed != "" {
		prompt += fmt.Sprintf(" Use these elements as inspiration: %s", seed)
	}
	return prompt
}

// GenerateIngredientListPrompt 為食譜構想生成食材清單
func GenerateIngredientListPrompt(name, description string, portions int) string {
	return fmt.Sprintf(`For the recipe "%s" (%s), generate a list of ingredients in JSON format.

The response MUST be a JSON array of objects, without any text before or after, where each object has exactly these fields:

[
  {
    "name": "carrot",
    "quantity": 200,
    "unit": "g",
    "notes": "peeled and diced"
  }
]

Requirements:
- name MUST be the exact ingredient name in lowercase
- quantity MUST be a positive number
- unit MUST be one of: g, kg, ml, l, unit
- notes is optional

The recipe is for %d servings. All ingredients must be common and easily available.`, name, description, portions)
}

// GenerateStepListPrompt 為食譜構想與食材生成準備步驟
func GenerateStepListPrompt(name, description, ingredientsList, difficulty string, portions int) string {
	return fmt.Sprintf(`For the recipe "%s" (%s), with the following ingredients: %s, generate the preparation steps in JSON format.

The response MUST be a JSON array of objects, without any text before or after, where each object has these fields:

[
  {
    "order": 1,
    "text": "Detailed description of the step",
    "type": "preparation|cooking|resting",
    "cookingTime": 15 or null,
    "temperature": 180 or null,
    "notes": "Optional notes"
  }
]

The recipe is %s difficulty and for %d servings.`, name, description, ingredientsList, difficulty, portions)
}

// ResolveIngredientPrompt 解析單一食材
func ResolveIngredientPrompt(name string) string {
	return fmt.Sprintf(`You are an expert in culinary ingredients. Here is an ingredient extracted from a recipe: "%s".

Analyze this ingredient and return a JSON object compatible with this model, without any text before or after:

{
  "name": "normalized name in lowercase without accents (REQUIRED)",
  "displayName": "Nice display name",
  "displayPlural": "Plural name for display",
  "plural": "normalized plural name",
  "type": "vegetable|meat|fish|dairy|cereal|fruit|spice|oil|other",
  "frozenOrCanned": false,
  "seasons": ["spring", "summer", "autumn", "winter"] or [] if year-round,
  "withPork": false,
  "storeShelf": "fresh|frozen|grocery|butcher|fishmonger",
  "grossWeight": 100
}

CRITICAL REQUIREMENTS:
- The "name" field is MANDATORY and must be a normalized lowercase string
- Normalize the name (e.g., "large eggs" -> "large egg", "cherry tomatoes" -> "cherry tomato")
- Remove articles and unnecessary words
- Determine the main type
- Indicate seasons if seasonal
- Estimate a standard gross weight in grams`, name)
}

// EnhanceStepsPrompt 強化食譜步驟
func EnhanceStepsPrompt(title, description, ingredientsJSON, rawStepsJSON string) string {
	return fmt.Sprintf(`You are a professional chef. Here is a recipe to enhance:

**Title:** %s
**Description:** %s
**Ingredients:** %s
**Raw steps:** %s

Enhance these steps by detailing each action precisely. For each step, return a JSON object in the following format, without any text before or after:

{
  "steps": [
    {
      "order": 1,
      "text": "Detailed description of the step with exact quantities",
      "type": "preparation|cooking|resting|assembly|finishing",
      "temperature": 180 or null,
      "cookingTime": 15 or null,
      "notes": "Specific tips for this step",
      "subSteps": ["Action 1", "Action 2"] or [],
      "ingredientRefs": ["ingredient-name1", "ingredient-name2"],
      "toolsUsed": ["whisk", "pan", "oven"] or []
    }
  ]
}

Important rules:
- Detail each action with precision
- Indicate ingredient quantities used at each step
- Specify times and temperatures
- Add practical tips
- Reference the correct ingredients by their normalized name`, title, description, ingredientsJSON, rawStepsJSON)
}

// ComputeNutritionPrompt 計算營養值
func ComputeNutritionPrompt(ingredientsJSON string, portions int) string {
	return fmt.Sprintf(`You are an expert nutritionist. Calculate the nutritional values for this recipe:

**Ingredients with quantities:** %s
**Number of portions:** %d

Estimate the nutritional values FOR ONE PORTION and return a JSON object in the following format, without any text before or after:

{
  "nutritionalValues": {
    "kcalPer100g": 250,
    "kjPer100g": 1046,
    "proteinsPer100g": 8.5,
    "lipidsPer100g": 12.0,
    "saturatedFattyAcidsPer100g": 3.2,
    "carbohydratesPer100g": 28.0,
    "simpleSugarsPer100g": 4.5,
    "fibresPer100g": 2.8,
    "saltPer100g": 0.8,
    "pnnsFruitPer100g": 0,
    "pnnsVegetablePer100g": 15,
    "oilsPer100g": 5.0,
    "pnnsNutsPer100g": 0,
    "pnnsDriedVegetablePer100g": 0
  },
  "nutriscore": "B"
}

Base your calculations on:
- Exact ingredient quantities
- Cooking methods that may modify values
- Standard nutritional values of foods
- Number of portions to calculate per portion`, ingredientsJSON, portions)
}
