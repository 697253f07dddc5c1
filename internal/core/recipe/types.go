package recipe

import (
	"context"

	"pantry-chef/internal/core/content"
	"pantry-chef/internal/core/quota"
	"pantry-chef/internal/pkg/common"
)

// Store 內容庫操作
type Store interface {
	Find(ctx context.Context, collection string, q content.Query, out any) error
	Create(ctx context.Context, collection string, payload any, out any) error
	Delete(ctx context.Context, collection string, id string) error
}

// Completer AI 文字生成
type Completer interface {
	ProcessRequest(ctx context.Context, kind string, prompt string) (string, error)
}

// Locker 建議鎖
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// ImageFinder 食譜圖片搜尋
type ImageFinder interface {
	FindImage(ctx context.Context, query string) (string, error)
}

// RecipeGenerator 依菜名生成完整食譜
type RecipeGenerator interface {
	GenerateRecipe(ctx context.Context, title string) (*common.Recipe, error)
}

// SuggestionGenerator 依食材生成推薦清單
type SuggestionGenerator interface {
	SuggestRecipes(ctx context.Context, ingredients string) ([]common.RecipeSuggestion, error)
}

// SavedChecker 查詢收藏狀態
type SavedChecker interface {
	IsSaved(ctx context.Context, user common.User, recipeID common.ID) (bool, error)
}

// PantryReader 讀取使用者食材庫存
type PantryReader interface {
	List(ctx context.Context, user common.User) ([]common.PantryItem, error)
}

// QuotaPolicy 配額服務
type QuotaPolicy = quota.Policy

// ResolveResult 食譜解析結果
type ResolveResult struct {
	Recipe       *common.Recipe `json:"recipe"`
	RecipeID     common.ID      `json:"recipeId"`
	IsSaved      bool           `json:"isSaved"`
	FromDatabase bool           `json:"fromDatabase"`
}

// SaveResult 收藏結果
type SaveResult struct {
	AlreadySaved bool                `json:"alreadySaved"`
	SavedRecipe  *common.SavedRecipe `json:"savedRecipe,omitempty"`
	Message      string              `json:"message"`
}

// RemoveResult 取消收藏結果
type RemoveResult struct {
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}

// RecommendResult 食材推薦結果，Success 為 false 時表示非致命結果（例如食材庫為空）
type RecommendResult struct {
	Success              bool                      `json:"success"`
	Recipes              []common.RecipeSuggestion `json:"recipes"`
	IngredientsUsed      string                    `json:"ingredientsUsed,omitempty"`
	RecommendationsLimit any                       `json:"recommendationsLimit,omitempty"`
	Message              string                    `json:"message"`
}

// 對使用者顯示的訊息
const (
	MsgRecipeSaved        = "Recipe saved to your collection!"
	MsgRecipeAlreadySaved = "Recipe is already in your collection"
	MsgRecipeRemoved      = "Recipe removed from your collection"
	MsgRecipeNotSaved     = "Recipe was not in your collection"
	MsgEmptyPantry        = "Your pantry is empty. Add ingredients first!"
	MsgRecipeIDRequired   = "Recipe ID is required"
	MsgRecipeNameRequired = "Recipe name is required"
	MsgQuotaFree          = "Monthly AI recipe limit reached. Upgrade to Pro!"
	MsgQuotaPro           = "Monthly AI recipe limit reached. Please contact support."
	MsgQuotaDenied        = "Request denied"
)

const unlimited = "unlimited"
