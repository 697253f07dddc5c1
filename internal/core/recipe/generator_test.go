package recipe

import (
	"context"
	"strings"
	"testing"

	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipeJSON = `{
  "title": "apple pie deluxe",
  "description": " Classic pie. ",
  "category": "Dessert",
  "cuisine": "American",
  "prepTime": 20,
  "cookTime": 45,
  "servings": 8,
  "ingredients": [{"item": "apples", "amount": "6"}],
  "instructions": [{"title": "Prep", "instruction": "Slice apples."}, {"step": 2, "instruction": "Bake."}],
  "tips": ["Use tart apples"],
  "nutrition": {"calories": "320 kcal", "protein": "3g", "carbs": "45g", "fat": "14g"}
}`

func TestGenerateRecipeParsesAndForcesTitle(t *testing.T) {
	ai := &scriptedCompleter{responses: []string{"```json\n" + recipeJSON + "\n```"}}
	g := NewGenerator(ai)

	r, err := g.GenerateRecipe(context.Background(), "apple pie")
	require.NoError(t, err)

	assert.Equal(t, "Apple Pie", r.Title)
	assert.Equal(t, "dessert", r.Category)
	assert.Equal(t, "american", r.Cuisine)
	assert.Equal(t, "Classic pie.", r.Description)
	assert.Equal(t, 8, r.Servings)
	require.Len(t, r.Instructions, 2)
	assert.Equal(t, 1, r.Instructions[0].Step)
	assert.Equal(t, 2, r.Instructions[1].Step)
	require.NotNil(t, r.Nutrition)
	assert.Equal(t, "320 kcal", r.Nutrition.Calories)
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], `"Apple Pie"`)
}

func TestGenerateRecipeFencedMatchesUnfenced(t *testing.T) {
	fenced, err := NewGenerator(&scriptedCompleter{responses: []string{"```json\n" + recipeJSON + "\n```"}}).
		GenerateRecipe(context.Background(), "Apple Pie")
	require.NoError(t, err)
	plain, err := NewGenerator(&scriptedCompleter{responses: []string{recipeJSON}}).
		GenerateRecipe(context.Background(), "Apple Pie")
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)
}

func TestGenerateRecipeMalformedJSON(t *testing.T) {
	g := NewGenerator(&scriptedCompleter{responses: []string{"Sorry, I can't help with that."}})

	_, err := g.GenerateRecipe(context.Background(), "Apple Pie")
	assert.ErrorIs(t, err, common.ErrGenerationParseError)
}

func TestGenerateRecipeInvalidShape(t *testing.T) {
	bad := strings.Replace(recipeJSON, `"servings": 8`, `"servings": 0`, 1)
	g := NewGenerator(&scriptedCompleter{responses: []string{bad}})

	_, err := g.GenerateRecipe(context.Background(), "Apple Pie")
	assert.ErrorIs(t, err, common.ErrGenerationParseError)
}

func TestGenerateRecipePassesThroughUnavailable(t *testing.T) {
	g := NewGenerator(&scriptedCompleter{err: common.ErrGenerationUnavailable})

	_, err := g.GenerateRecipe(context.Background(), "Apple Pie")
	assert.ErrorIs(t, err, common.ErrGenerationUnavailable)
}

func TestGenerateRecipeRequiresTitle(t *testing.T) {
	_, err := NewGenerator(&scriptedCompleter{}).GenerateRecipe(context.Background(), "  ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

const suggestionsJSON = `[
  {"title": "omelette", "matchPercentage": 95, "missingIngredients": [], "category": "Breakfast", "cuisine": "French"},
  {"title": "Pancakes", "matchPercentage": 120, "category": "breakfast", "cuisine": "american"},
  {"title": "", "matchPercentage": 99},
  {"title": "Crepes", "matchPercentage": 40, "category": "dessert", "cuisine": "french"},
  {"title": "Quiche", "matchPercentage": 80, "category": "lunch"},
  {"title": "French Toast", "matchPercentage": 88, "category": "breakfast"},
  {"title": "Popovers", "matchPercentage": 75, "category": "snack"}
]`

func TestSuggestRecipesNormalizesList(t *testing.T) {
	g := NewGenerator(&scriptedCompleter{responses: []string{"```json\n" + suggestionsJSON + "\n```"}})

	out, err := g.SuggestRecipes(context.Background(), "eggs, flour, milk")
	require.NoError(t, err)

	require.Len(t, out, 5)
	for i, s := range out {
		assert.NotEmpty(t, s.Title)
		assert.GreaterOrEqual(t, s.MatchPercentage, 70)
		assert.LessOrEqual(t, s.MatchPercentage, 100)
		assert.NotNil(t, s.MissingIngredients)
		if i > 0 {
			assert.GreaterOrEqual(t, out[i-1].MatchPercentage, s.MatchPercentage)
		}
	}
	assert.Equal(t, "Pancakes", out[0].Title)
	assert.Equal(t, 100, out[0].MatchPercentage)
	assert.Equal(t, "Omelette", out[1].Title)
	assert.Equal(t, "french", out[1].Cuisine)
	assert.Equal(t, "🍳", out[1].CategoryEmoji)
	assert.Equal(t, "🥐", out[1].CuisineFlag)
}

func TestSuggestRecipesFencedMatchesUnfenced(t *testing.T) {
	fenced, err := NewGenerator(&scriptedCompleter{responses: []string{"```json\n" + suggestionsJSON + "\n```"}}).
		SuggestRecipes(context.Background(), "eggs")
	require.NoError(t, err)
	plain, err := NewGenerator(&scriptedCompleter{responses: []string{suggestionsJSON}}).
		SuggestRecipes(context.Background(), "eggs")
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)
}

func TestSuggestRecipesPromptCarriesIngredients(t *testing.T) {
	ai := &scriptedCompleter{responses: []string{"[]"}}

	out, err := NewGenerator(ai).SuggestRecipes(context.Background(), "eggs, flour, milk")
	require.NoError(t, err)
	assert.Empty(t, out)
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "eggs, flour, milk")
}

func TestSuggestRecipesParseError(t *testing.T) {
	g := NewGenerator(&scriptedCompleter{responses: []string{`[{"title": "Broken"`}})

	_, err := g.SuggestRecipes(context.Background(), "eggs")
	assert.ErrorIs(t, err, common.ErrGenerationParseError)
}
