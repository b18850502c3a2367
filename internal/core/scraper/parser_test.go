package scraper_test

import (
	"testing"

	"recipe-enricher/internal/core/scraper"
	"recipe-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func TestParseScrapedRecipe_CleansAndExtracts(t *testing.T) {
	result := map[string][]string{
		"title":           {"  <h1>Beef   stew</h1>  "},
		"description":     {"<p>A hearty classic</p>"},
		"ingredients":     {"<li>500g of beef</li>", "  ", "2 onions"},
		"steps":           {"<span>Brown the beef</span>", "Simmer"},
		"preparationTime": {"Prep: 20 minutes"},
		"cookingTime":     {"120 min"},
		"portions":        {"serves 6 people"},
	}

	recipe := scraper.ParseScrapedRecipe(result, "https://example.com/stew")

	assert.Equal(t, "Beef stew", recipe.Title)
	assert.Equal(t, "A hearty classic", recipe.Description)
	assert.Equal(t, []string{"500g of beef", "2 onions"}, recipe.RawIngredients)
	assert.Equal(t, []string{"Brown the beef", "Simmer"}, recipe.RawSteps)
	assert.Equal(t, 20, recipe.PreparationTime)
	assert.Equal(t, 120, recipe.CookingTime)
	assert.Equal(t, 6, recipe.Portions)
	assert.Equal(t, common.SourceScraping, recipe.Source)
	assert.Equal(t, "https://example.com/stew", recipe.SourceInput)
}

func TestParseScrapedRecipe_Defaults(t *testing.T) {
	recipe := scraper.ParseScrapedRecipe(map[string][]string{}, "https://example.com/empty")

	assert.Equal(t, "Scraped recipe", recipe.Title)
	assert.Equal(t, "Recipe imported from https://example.com/empty", recipe.Description)
	assert.Empty(t, recipe.RawIngredients)
	assert.Equal(t, 0, recipe.PreparationTime)
	assert.Equal(t, 0, recipe.CookingTime)
	assert.Equal(t, 4, recipe.Portions)
}
