package recipe

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/pkg/common"
)

const recipePromptTemplate = `You are a professional chef. Create a detailed, reliable home-cooking recipe for the dish "%s".

Return ONLY a valid JSON object (no markdown, no code fences, no explanations) with exactly this structure:
{
  "title": "%s",
  "description": "Short appetizing description (2-3 sentences)",
  "category": "breakfast|lunch|dinner|snack|dessert",
  "cuisine": "e.g. italian, chinese, mexican",
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "ingredients": [
    { "item": "ingredient name", "amount": "quantity with unit" }
  ],
  "instructions": [
    { "step": 1, "title": "Short step title", "instruction": "Detailed instruction", "tip": "Optional tip" }
  ],
  "tips": ["General cooking tip"],
  "nutrition": { "calories": "350 kcal", "protein": "20g", "carbs": "40g", "fat": "12g" }
}

Rules:
- prepTime and cookTime are whole minutes (integers, not negative)
- servings is a positive integer
- nutrition values are per serving
- category must be one of: breakfast, lunch, dinner, snack, dessert
- cuisine is a single lowercase word or phrase`

// GenerateRecipe 依標準標題生成完整食譜，標題以 title 為準
func (g *Generator) GenerateRecipe(ctx context.Context, title string) (*common.Recipe, error) {
	title = NormalizeTitle(title)
	if title == "" {
		return nil, common.ErrInvalidInput.WithMessage(MsgRecipeNameRequired)
	}

	prompt := fmt.Sprintf(recipePromptTemplate, title, title)

	var result common.Recipe
	if err := g.jsonInto(ctx, kindRecipe, prompt, '{', '}', &result); err != nil {
		return nil, err
	}

	// 標題以標準化結果為準，避免模型改寫造成重複記錄
	result.Title = title
	result.ID = ""
	result.DocumentID = ""
	result.Category = strings.ToLower(strings.TrimSpace(result.Category))
	result.Cuisine = strings.ToLower(strings.TrimSpace(result.Cuisine))
	result.Description = strings.TrimSpace(result.Description)
	for i := range result.Instructions {
		if result.Instructions[i].Step <= 0 {
			result.Instructions[i].Step = i + 1
		}
	}
	if result.Nutrition != nil && *result.Nutrition == (common.Nutrition{}) {
		result.Nutrition = nil
	}

	if err := g.validate.Struct(&result); err != nil {
		return nil, common.ErrGenerationParseError.Wrap(fmt.Errorf("invalid recipe shape: %w", err))
	}

	return &result, nil
}
