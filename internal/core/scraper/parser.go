package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"recipe-enricher/internal/pkg/common"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	leadingDigits     = regexp.MustCompile(`\d+`)
)

// cleanText 去除 HTML 標籤並壓縮空白
func cleanText(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// extractNumber 取文字中第一段數字，找不到時回傳 fallback
func extractNumber(s string, fallback int) int {
	match := leadingDigits.FindString(s)
	if match == "" {
		return fallback
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return fallback
	}
	return n
}

func firstClean(values []string) string {
	for _, v := range values {
		if cleaned := cleanText(v); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

func cleanAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if cleaned := cleanText(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// ParseScrapedRecipe 將抓取服務回傳的 selector 結果整理成原始食譜
// 缺漏的欄位以可用的預設值補齊，而不是讓整次抓取失敗
func ParseScrapedRecipe(result map[string][]string, url string) *common.RawRecipe {
	recipe := &common.RawRecipe{
		Title:           firstClean(result["title"]),
		Description:     firstClean(result["description"]),
		RawIngredients:  cleanAll(result["ingredients"]),
		RawSteps:        cleanAll(result["steps"]),
		PreparationTime: extractNumber(firstClean(result["preparationTime"]), 0),
		CookingTime:     extractNumber(firstClean(result["cookingTime"]), 0),
		Portions:        extractNumber(firstClean(result["portions"]), 4),
		Source:          common.SourceScraping,
		SourceInput:     url,
	}

	if recipe.Title == "" {
		recipe.Title = "Scraped recipe"
	}
	if recipe.Description == "" {
		recipe.Description = fmt.Sprintf("Recipe imported from %s", url)
	}

	return recipe
}
