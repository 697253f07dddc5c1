package recipe

import (
	"context"
	"errors"
	"strings"

	"pantry-chef/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AI 請求種類（日誌與指標標籤）
const (
	kindRecipe      = "recipe"
	kindSuggestions = "suggestions"
)

// Generator 食譜生成服務，負責組 prompt 與解析 AI 回應
type Generator struct {
	ai       Completer
	validate *validator.Validate
}

var (
	_ RecipeGenerator     = (*Generator)(nil)
	_ SuggestionGenerator = (*Generator)(nil)
)

// NewGenerator 創建新的食譜生成服務
func NewGenerator(ai Completer) *Generator {
	return &Generator{
		ai:       ai,
		validate: validator.New(),
	}
}

// 呼叫 AI 並將 JSON 解到 out，open/close 為預期的最外層括號
func (g *Generator) jsonInto(ctx context.Context, kind, prompt string, open, close byte, out any) error {
	raw, err := g.ai.ProcessRequest(ctx, kind, prompt)
	if err != nil {
		return err
	}

	txt := common.StripCodeFence(raw)
	txt = common.ExtractJSON(txt, open, close)
	if txt == "" {
		return common.ErrGenerationParseError.Wrap(errors.New("empty AI response"))
	}

	if err := common.ParseJSON(txt, out); err != nil {
		common.LogWarn("AI 回應解析失敗",
			zap.String("kind", kind),
			zap.Error(err),
			zap.String("ai_response_preview", preview(txt)),
		)
		return common.ErrGenerationParseError.Wrap(err)
	}
	return nil
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
