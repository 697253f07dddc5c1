package recipe

import (
	"context"
	"errors"
	"net/http"

	"pantry-chef/internal/api/middleware"
	recipeService "pantry-chef/internal/core/recipe"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Resolver 依菜名取得食譜
type Resolver interface {
	Resolve(ctx context.Context, rawName string, user common.User) (*recipeService.ResolveResult, error)
}

// Bookmarks 收藏操作
type Bookmarks interface {
	Save(ctx context.Context, user common.User, recipeID common.ID) (*recipeService.SaveResult, error)
	Remove(ctx context.Context, user common.User, recipeID common.ID) (*recipeService.RemoveResult, error)
	List(ctx context.Context, user common.User) ([]common.SavedRecipe, error)
}

// Recommender 食材推薦
type Recommender interface {
	Recommend(ctx context.Context, user common.User) (*recipeService.RecommendResult, error)
}

// ResolveRequest 依菜名取得食譜
type ResolveRequest struct {
	RecipeName string `json:"recipeName"`
}

// SaveRequest 收藏食譜
type SaveRequest struct {
	RecipeID common.ID `json:"recipeId"`
}

// ResolveResponse 食譜解析回應
type ResolveResponse struct {
	Success bool `json:"success"`
	*recipeService.ResolveResult
}

// SaveResponse 收藏回應
type SaveResponse struct {
	Success bool `json:"success"`
	*recipeService.SaveResult
}

// RemoveResponse 取消收藏回應
type RemoveResponse struct {
	Success bool `json:"success"`
	*recipeService.RemoveResult
}

// SavedListResponse 收藏清單回應
type SavedListResponse struct {
	Success      bool                 `json:"success"`
	SavedRecipes []common.SavedRecipe `json:"savedRecipes"`
	Count        int                  `json:"count"`
}

// PantryResponse 食材庫存回應
type PantryResponse struct {
	Success bool                `json:"success"`
	Items   []common.PantryItem `json:"items"`
	Count   int                 `json:"count"`
}

// Handler 食譜處理程序
type Handler struct {
	resolver    Resolver
	bookmarks   Bookmarks
	recommender Recommender
	pantry      recipeService.PantryReader
}

// NewHandler 創建新的食譜處理程序
func NewHandler(resolver Resolver, bookmarks Bookmarks, recommender Recommender, pantry recipeService.PantryReader) *Handler {
	return &Handler{
		resolver:    resolver,
		bookmarks:   bookmarks,
		recommender: recommender,
		pantry:      pantry,
	}
}

// Resolve POST /api/v1/recipes/resolve
func (h *Handler) Resolve(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteErrorResponse(c, common.ErrInvalidInput.Wrap(err))
		return
	}

	common.LogInfo("開始解析食譜",
		zap.String("request_id", requestid.Get(c)),
		zap.String("recipe_name", req.RecipeName),
		zap.String("user_id", user.ID.String()),
	)

	res, err := h.resolver.Resolve(c.Request.Context(), req.RecipeName, user)
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, ResolveResponse{Success: true, ResolveResult: res})
}

// SaveRecipe POST /api/v1/recipes/saved
func (h *Handler) SaveRecipe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteErrorResponse(c, common.ErrInvalidInput.Wrap(err))
		return
	}

	res, err := h.bookmarks.Save(c.Request.Context(), user, req.RecipeID)
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}

	status := http.StatusCreated
	if res.AlreadySaved {
		status = http.StatusOK
	}
	c.JSON(status, SaveResponse{Success: true, SaveResult: res})
}

// RemoveSavedRecipe DELETE /api/v1/recipes/saved/:recipeId
func (h *Handler) RemoveSavedRecipe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.bookmarks.Remove(c.Request.Context(), user, common.ID(c.Param("recipeId")))
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, RemoveResponse{Success: true, RemoveResult: res})
}

// ListSaved GET /api/v1/recipes/saved
func (h *Handler) ListSaved(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	saved, err := h.bookmarks.List(c.Request.Context(), user)
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}
	if saved == nil {
		saved = []common.SavedRecipe{}
	}

	c.JSON(http.StatusOK, SavedListResponse{Success: true, SavedRecipes: saved, Count: len(saved)})
}

// Recommend POST /api/v1/recipes/recommendations
func (h *Handler) Recommend(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.recommender.Recommend(c.Request.Context(), user)
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}

	// 食材庫為空不是錯誤，仍回 200
	c.JSON(http.StatusOK, res)
}

// ListPantry GET /api/v1/pantry
func (h *Handler) ListPantry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.pantry.List(c.Request.Context(), user)
	if err != nil {
		common.WriteErrorResponse(c, err)
		return
	}
	if items == nil {
		items = []common.PantryItem{}
	}

	c.JSON(http.StatusOK, PantryResponse{Success: true, Items: items, Count: len(items)})
}

func currentUser(c *gin.Context) (common.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteErrorResponse(c, common.ErrUnauthorized.Wrap(errors.New("no authenticated user")))
		return common.User{}, false
	}
	return user, true
}
