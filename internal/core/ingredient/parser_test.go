package ingredient_test

import (
	"testing"

	"recipe-enricher/internal/core/ingredient"
	"recipe-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	common.Logger = zap.NewNop()
}

func TestParseLine_QuantityUnitName(t *testing.T) {
	parsed := ingredient.ParseLine("200g of carrots")

	require.NotNil(t, parsed.Quantity)
	assert.Equal(t, 200.0, *parsed.Quantity)
	require.NotNil(t, parsed.Unit)
	assert.Equal(t, "gram", *parsed.Unit)
	assert.Equal(t, "carrot", parsed.Name)
	assert.Equal(t, "200g of carrots", parsed.OriginalText)
}

func TestParseLine_QuantityName(t *testing.T) {
	parsed := ingredient.ParseLine("2 eggs")

	require.NotNil(t, parsed.Quantity)
	assert.Equal(t, 2.0, *parsed.Quantity)
	require.NotNil(t, parsed.Unit)
	assert.Equal(t, "unit", *parsed.Unit)
	assert.Equal(t, "egg", parsed.Name)
}

func TestParseLine_CommaDecimal(t *testing.T) {
	parsed := ingredient.ParseLine("1,5 kg potatoes")

	require.NotNil(t, parsed.Quantity)
	assert.Equal(t, 1.5, *parsed.Quantity)
	require.NotNil(t, parsed.Unit)
	assert.Equal(t, "kilogram", *parsed.Unit)
	assert.Equal(t, "potatoe", parsed.Name)
}

func TestParseLine_NameOnly(t *testing.T) {
	parsed := ingredient.ParseLine("Salt")

	assert.Nil(t, parsed.Quantity)
	assert.Nil(t, parsed.Unit)
	assert.Equal(t, "salt", parsed.Name)
}

func TestParseLine_StripsLeadingArticle(t *testing.T) {
	// 冠詞開頭不符合數量模式，整行當名稱處理後去冠詞
	parsed := ingredient.ParseLine("the red onions")

	assert.Nil(t, parsed.Quantity)
	assert.Nil(t, parsed.Unit)
	assert.Equal(t, "red onion", parsed.Name)
}

func TestParseLine_UnitAliases(t *testing.T) {
	cases := map[string]string{
		"2 tbsp olive oil":    "tablespoon",
		"1 tsp sugar":         "teaspoon",
		"3 cups flour":        "cup",
		"25 cl cream":         "centiliter",
		"2 pinches of nutmeg": "pinch",
	}

	for line, want := range cases {
		parsed := ingredient.ParseLine(line)
		require.NotNil(t, parsed.Unit, "line %q", line)
		assert.Equal(t, want, *parsed.Unit, "line %q", line)
	}
}

func TestParseLine_SingularizeKeepsSpecialEndings(t *testing.T) {
	assert.Equal(t, "swiss cheese", ingredient.ParseLine("swiss cheeses").Name)
	assert.Equal(t, "couscous", ingredient.ParseLine("couscous").Name)
	assert.Equal(t, "asparagus", ingredient.ParseLine("asparagus").Name)
}
