package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pantry-chef/internal/pkg/common"
)

const (
	maxSuggestions = 5
	minMatch       = 70
	maxMatch       = 100
)

const suggestionPromptTemplate = `You are a professional chef. Based on these available ingredients: %s

Suggest %d recipes that can be made primarily with these ingredients. It's okay if the recipes need 1-2 common pantry staples (salt, pepper, oil, etc.) that aren't listed.

Return ONLY a valid JSON array (no markdown, no code fences, no explanations):
[
  {
    "title": "Recipe name",
    "description": "Brief 1-2 sentence description",
    "matchPercentage": 85,
    "missingIngredients": ["ingredient1", "ingredient2"],
    "category": "breakfast|lunch|dinner|snack|dessert",
    "cuisine": "italian",
    "prepTime": 20,
    "cookTime": 30,
    "servings": 4
  }
]

Rules:
- matchPercentage should be 70-100 (how many listed ingredients are used)
- missingIngredients should only list items NOT in the provided ingredients
- Sort by matchPercentage descending
- Make recipes realistic and delicious`

// SuggestRecipes 依食材清單生成最多 5 筆推薦，比對分數介於 70~100 並由高到低排序
func (g *Generator) SuggestRecipes(ctx context.Context, ingredients string) ([]common.RecipeSuggestion, error) {
	ingredients = strings.TrimSpace(ingredients)
	if ingredients == "" {
		return nil, common.ErrInvalidInput.WithMessage("Ingredients are required")
	}

	prompt := fmt.Sprintf(suggestionPromptTemplate, ingredients, maxSuggestions)

	var raw []common.RecipeSuggestion
	if err := g.jsonInto(ctx, kindSuggestions, prompt, '[', ']', &raw); err != nil {
		return nil, err
	}

	return normalizeSuggestions(raw), nil
}

// normalizeSuggestions 過濾無標題項目、限制分數範圍、排序並截斷
func normalizeSuggestions(raw []common.RecipeSuggestion) []common.RecipeSuggestion {
	out := make([]common.RecipeSuggestion, 0, len(raw))
	for _, s := range raw {
		s.Title = NormalizeTitle(s.Title)
		if s.Title == "" {
			continue
		}
		s.MatchPercentage = clamp(s.MatchPercentage, minMatch, maxMatch)
		s.Category = strings.ToLower(strings.TrimSpace(s.Category))
		s.Cuisine = strings.ToLower(strings.TrimSpace(s.Cuisine))
		if s.MissingIngredients == nil {
			s.MissingIngredients = []string{}
		}
		s.CategoryEmoji = common.CategoryEmoji(s.Category)
		s.CuisineFlag = common.CuisineFlag(s.Cuisine)
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchPercentage > out[j].MatchPercentage
	})

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
