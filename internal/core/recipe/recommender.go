package recipe

import (
	"context"
	"errors"
	"fmt"

	"pantry-chef/internal/core/quota"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Recommender 依使用者食材庫存推薦食譜
type Recommender struct {
	pantry    PantryReader
	generator SuggestionGenerator
	policy    QuotaPolicy
	rules     config.QuotaConfig
}

// NewRecommender 創建推薦服務
func NewRecommender(pantry PantryReader, generator SuggestionGenerator, policy QuotaPolicy, rules config.QuotaConfig) *Recommender {
	return &Recommender{
		pantry:    pantry,
		generator: generator,
		policy:    policy,
		rules:     rules,
	}
}

// Recommend 先檢查配額，再讀取食材並請 AI 推薦
func (r *Recommender) Recommend(ctx context.Context, user common.User) (*RecommendResult, error) {
	if user.ID.IsZero() {
		return nil, common.ErrUnauthorized.Wrap(errors.New("missing user id"))
	}

	if err := r.checkQuota(ctx, user); err != nil {
		return nil, err
	}

	items, err := r.pantry.List(ctx, user)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	ingredients := common.JoinNames(names)
	if ingredients == "" {
		return &RecommendResult{
			Success: false,
			Recipes: []common.RecipeSuggestion{},
			Message: MsgEmptyPantry,
		}, nil
	}

	suggestions, err := r.generator.SuggestRecipes(ctx, ingredients)
	if err != nil {
		return nil, err
	}

	common.LogInfo("食材推薦完成",
		zap.String("user_id", user.ID.String()),
		zap.Int("pantry_items", len(items)),
		zap.Int("recipes", len(suggestions)),
	)

	return &RecommendResult{
		Success:              true,
		Recipes:              suggestions,
		IngredientsUsed:      ingredients,
		RecommendationsLimit: r.limitFor(user),
		Message:              fmt.Sprintf("Found %d recipes you can make!", len(suggestions)),
	}, nil
}

func (r *Recommender) checkQuota(ctx context.Context, user common.User) error {
	key := user.ExternalID
	if key == "" {
		key = user.ID.String()
	}
	rule := quota.RuleForTier(r.rules, user.Tier)

	decision, err := r.policy.Check(ctx, key, 1, rule)
	if err != nil {
		return err
	}
	if decision.Allowed {
		return nil
	}

	common.LogWarn("配額拒絕",
		zap.String("user_id", user.ID.String()),
		zap.String("rule", rule.Name),
		zap.String("reason", string(decision.Reason)),
	)
	if decision.Reason == quota.ReasonRateLimit {
		if user.IsPro() {
			return common.ErrQuotaExceeded.WithMessage(MsgQuotaPro)
		}
		return common.ErrQuotaExceeded.WithMessage(MsgQuotaFree)
	}
	return common.ErrQuotaExceeded.WithMessage(MsgQuotaDenied)
}

func (r *Recommender) limitFor(user common.User) any {
	if user.IsPro() {
		return unlimited
	}
	return r.rules.Free.Limit
}
