package recipe

import (
	"context"
	"errors"
	"time"

	"pantry-chef/internal/core/content"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// BookmarkManager 管理使用者與食譜的收藏關聯，每組 (user, recipe) 至多一筆
type BookmarkManager struct {
	store   Store
	locker  Locker
	metrics *metrics.Collector
	now     func() time.Time
}

var _ SavedChecker = (*BookmarkManager)(nil)

// NewBookmarkManager 創建收藏管理器，locker 可為 nil
func NewBookmarkManager(store Store, locker Locker, m *metrics.Collector) *BookmarkManager {
	return &BookmarkManager{
		store:   store,
		locker:  locker,
		metrics: m,
		now:     time.Now,
	}
}

// savedPayload 建立收藏時送出的欄位
type savedPayload struct {
	User    common.ID `json:"user"`
	Recipe  common.ID `json:"recipe"`
	SavedAt string    `json:"savedAt"`
}

// Save 收藏食譜，已收藏時不重複建立
func (b *BookmarkManager) Save(ctx context.Context, user common.User, recipeID common.ID) (*SaveResult, error) {
	if err := checkBookmarkInput(user, recipeID); err != nil {
		return nil, err
	}

	if b.locker != nil {
		release, err := b.locker.Acquire(ctx, "saved:"+user.ID.String()+":"+recipeID.String())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, common.ErrRequestTimeout.Wrap(ctxErr)
			}
			common.LogWarn("取得收藏鎖失敗，改為無鎖收藏", zap.Error(err))
		} else {
			defer release()
		}
	}

	existing, err := b.find(ctx, user, recipeID, 1)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		b.metrics.RecordBookmark("save", "already_saved")
		return &SaveResult{
			AlreadySaved: true,
			SavedRecipe:  &existing[0],
			Message:      MsgRecipeAlreadySaved,
		}, nil
	}

	payload := savedPayload{
		User:    user.ID,
		Recipe:  recipeID,
		SavedAt: b.now().UTC().Format(time.RFC3339),
	}
	var created common.SavedRecipe
	if err := b.store.Create(ctx, content.CollectionSavedRecipes, payload, &created); err != nil {
		b.metrics.RecordBookmark("save", "error")
		return nil, err
	}

	b.metrics.RecordBookmark("save", "created")
	common.LogInfo("食譜已收藏",
		zap.String("user_id", user.ID.String()),
		zap.String("recipe_id", recipeID.String()),
	)
	return &SaveResult{
		SavedRecipe: &created,
		Message:     MsgRecipeSaved,
	}, nil
}

// Remove 取消收藏，未收藏時視為成功
func (b *BookmarkManager) Remove(ctx context.Context, user common.User, recipeID common.ID) (*RemoveResult, error) {
	if err := checkBookmarkInput(user, recipeID); err != nil {
		return nil, err
	}

	existing, err := b.find(ctx, user, recipeID, 0)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		b.metrics.RecordBookmark("remove", "not_saved")
		return &RemoveResult{Removed: false, Message: MsgRecipeNotSaved}, nil
	}

	// 併發收藏可能留下重複關聯，一併刪除
	for _, saved := range existing {
		if err := b.store.Delete(ctx, content.CollectionSavedRecipes, relationKey(saved)); err != nil {
			b.metrics.RecordBookmark("remove", "error")
			return nil, err
		}
	}

	b.metrics.RecordBookmark("remove", "removed")
	return &RemoveResult{Removed: true, Message: MsgRecipeRemoved}, nil
}

// IsSaved 是否已收藏
func (b *BookmarkManager) IsSaved(ctx context.Context, user common.User, recipeID common.ID) (bool, error) {
	if err := checkBookmarkInput(user, recipeID); err != nil {
		return false, err
	}
	existing, err := b.find(ctx, user, recipeID, 1)
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

// List 列出使用者的收藏，新到舊
func (b *BookmarkManager) List(ctx context.Context, user common.User) ([]common.SavedRecipe, error) {
	if user.ID.IsZero() {
		return nil, common.ErrUnauthorized
	}

	var saved []common.SavedRecipe
	q := content.Query{
		Filters:  []content.Filter{content.Eq(user.ID.String(), "user", "id")},
		Populate: []string{"recipe"},
		Sort:     []string{"savedAt:desc"},
		PageSize: 100,
	}
	if err := b.store.Find(ctx, content.CollectionSavedRecipes, q, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (b *BookmarkManager) find(ctx context.Context, user common.User, recipeID common.ID, limit int) ([]common.SavedRecipe, error) {
	var saved []common.SavedRecipe
	q := content.Query{
		Filters: []content.Filter{
			content.Eq(user.ID.String(), "user", "id"),
			content.Eq(recipeID.String(), "recipe", "id"),
		},
		PageSize: limit,
	}
	if err := b.store.Find(ctx, content.CollectionSavedRecipes, q, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func checkBookmarkInput(user common.User, recipeID common.ID) error {
	if user.ID.IsZero() {
		return common.ErrUnauthorized.Wrap(errors.New("missing user id"))
	}
	if recipeID.IsZero() {
		return common.ErrInvalidInput.WithMessage(MsgRecipeIDRequired)
	}
	return nil
}

// relationKey 刪除時使用的識別碼：Strapi v5 以 documentId 定位
func relationKey(s common.SavedRecipe) string {
	if s.DocumentID != "" {
		return s.DocumentID
	}
	return s.ID.String()
}
