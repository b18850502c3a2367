package ingredient

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-enricher/internal/pkg/common"
)

// 單位縮寫到標準名稱的對照，未知單位原樣保留
var unitAliases = map[string]string{
	"g":           "gram",
	"kg":          "kilogram",
	"ml":          "milliliter",
	"cl":          "centiliter",
	"l":           "liter",
	"tbsp":        "tablespoon",
	"tablespoon":  "tablespoon",
	"tablespoons": "tablespoon",
	"tsp":         "teaspoon",
	"teaspoon":    "teaspoon",
	"teaspoons":   "teaspoon",
	"cup":         "cup",
	"cups":        "cup",
	"pinch":       "pinch",
	"pinches":     "pinch",
}

var (
	// 「200g of carrot」、「2 tbsp olive oil」
	qtyUnitNamePattern = regexp.MustCompile(`(?i)^([\d]+(?:[.,]\d+)?)\s*(g|kg|ml|l|cl|tbsp|tablespoons?|tsp|teaspoons?|cups?|pinch(?:es)?)\s+(?:of\s+)?(.+)$`)
	// 「2 eggs」
	qtyNamePattern = regexp.MustCompile(`(?i)^([\d]+(?:[.,]\d+)?)\s+(.+)$`)

	leadingArticle = regexp.MustCompile(`(?i)^(?:of|a|an|the)\s+`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// normalizeName 小寫、去冠詞、壓縮空白、去複數尾 s
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = leadingArticle.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return singularize(name)
}

// singularize 去掉尾端的複數 s；「ss」「us」結尾的字不動
func singularize(name string) string {
	if len(name) < 3 || !strings.HasSuffix(name, "s") {
		return name
	}
	if strings.HasSuffix(name, "ss") || strings.HasSuffix(name, "us") {
		return name
	}
	return name[:len(name)-1]
}

func parseQuantity(raw string) *float64 {
	q, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &q
}

// ParseLine 解析一行食材文字
// 依序嘗試「數量+單位+名稱」「數量+名稱」，都不中時整行視為名稱
func ParseLine(line string) common.ParsedIngredientLine {
	parsed := common.ParsedIngredientLine{
		OriginalText: strings.TrimSpace(line),
	}
	text := parsed.OriginalText

	if m := qtyUnitNamePattern.FindStringSubmatch(text); m != nil {
		parsed.RawQuantity = m[1]
		parsed.RawUnit = strings.ToLower(m[2])
		parsed.Quantity = parseQuantity(m[1])
		parsed.Unit = canonicalUnit(parsed.RawUnit)
		parsed.Name = normalizeName(m[3])
		return parsed
	}

	if m := qtyNamePattern.FindStringSubmatch(text); m != nil {
		parsed.RawQuantity = m[1]
		parsed.Quantity = parseQuantity(m[1])
		unit := "unit"
		parsed.Unit = &unit
		parsed.Name = normalizeName(m[2])
		return parsed
	}

	parsed.Name = normalizeName(text)
	return parsed
}

func canonicalUnit(raw string) *string {
	if canonical, ok := unitAliases[raw]; ok {
		return &canonical
	}
	u := raw
	return &u
}
