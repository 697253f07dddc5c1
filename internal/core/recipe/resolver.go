package recipe

import (
	"context"
	"errors"
	"fmt"

	"pantry-chef/internal/core/content"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Resolver 將菜名解析為已落地的食譜：先查內容庫，未命中才生成並建立一次
type Resolver struct {
	store     Store
	generator RecipeGenerator
	bookmarks SavedChecker
	images    ImageFinder
	locker    Locker
	metrics   *metrics.Collector
}

// ResolverOption 解析器選項
type ResolverOption func(*Resolver)

// WithImageFinder 生成後附加圖片
func WithImageFinder(f ImageFinder) ResolverOption {
	return func(r *Resolver) { r.images = f }
}

// WithResolveLocker 以標準化標題加鎖
func WithResolveLocker(l Locker) ResolverOption {
	return func(r *Resolver) { r.locker = l }
}

// WithResolverMetrics 記錄解析結果
func WithResolverMetrics(m *metrics.Collector) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver 創建食譜解析器
func NewResolver(store Store, generator RecipeGenerator, bookmarks SavedChecker, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:     store,
		generator: generator,
		bookmarks: bookmarks,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 依菜名取得或生成食譜，並標示使用者是否已收藏
func (r *Resolver) Resolve(ctx context.Context, rawName string, user common.User) (*ResolveResult, error) {
	title := NormalizeTitle(rawName)
	if title == "" {
		return nil, common.ErrInvalidInput.WithMessage(MsgRecipeNameRequired)
	}

	if r.locker != nil {
		release, err := r.locker.Acquire(ctx, "recipe:"+title)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, common.ErrRequestTimeout.Wrap(ctxErr)
			}
			// 鎖不可用時退化為無鎖解析，由建立衝突處理兜底
			common.LogWarn("取得食譜解析鎖失敗，改為無鎖解析", zap.String("title", title), zap.Error(err))
		} else {
			defer release()
		}
	}

	existing, lookupErr := r.findByTitle(ctx, title)
	if lookupErr != nil {
		common.LogWarn("食譜查詢失敗，改為直接生成", zap.String("title", title), zap.Error(lookupErr))
	}
	if existing != nil {
		common.LogStoreLookup(content.CollectionRecipes, title, true)
		r.metrics.RecordResolution(metrics.OutcomeHit)
		return r.result(ctx, existing, user, true), nil
	}
	if lookupErr == nil {
		common.LogStoreLookup(content.CollectionRecipes, title, false)
	}

	generated, err := r.generator.GenerateRecipe(ctx, title)
	if err != nil {
		r.metrics.RecordResolution(metrics.OutcomeError)
		if lookupErr != nil {
			return nil, common.ErrRecipeNotResolved.Wrap(errors.Join(lookupErr, err))
		}
		return nil, err
	}

	if r.images != nil && generated.ImageURL == "" {
		url, err := r.images.FindImage(ctx, title)
		if err != nil {
			common.LogWarn("取得食譜圖片失敗", zap.String("title", title), zap.Error(err))
		}
		generated.ImageURL = url
	}

	var created common.Recipe
	if err := r.store.Create(ctx, content.CollectionRecipes, generated, &created); err != nil {
		if errors.Is(err, common.ErrStoreValidation) {
			// 唯一性衝突：其他請求已建立相同標題，改用既有記錄
			if winner, findErr := r.findByTitle(ctx, title); findErr == nil && winner != nil {
				common.LogInfo("食譜已由其他請求建立，改用既有記錄", zap.String("title", title))
				r.metrics.RecordResolution(metrics.OutcomeConflict)
				return r.result(ctx, winner, user, true), nil
			}
			r.metrics.RecordResolution(metrics.OutcomeError)
			return nil, err
		}
		r.metrics.RecordResolution(metrics.OutcomeError)
		common.LogError("生成的食譜寫入失敗", zap.String("title", title), zap.Error(err))
		return nil, common.ErrStoreUnavailable.Wrap(fmt.Errorf("persist recipe %q: %w", title, err))
	}

	r.metrics.RecordResolution(metrics.OutcomeMiss)
	common.LogInfo("食譜生成並寫入完成", zap.String("title", title), zap.String("recipe_id", created.ID.String()))
	return r.result(ctx, &created, user, false), nil
}

func (r *Resolver) findByTitle(ctx context.Context, title string) (*common.Recipe, error) {
	var recipes []common.Recipe
	q := content.Query{
		Filters:  []content.Filter{content.EqI(title, "title")},
		PageSize: 1,
	}
	if err := r.store.Find(ctx, content.CollectionRecipes, q, &recipes); err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

func (r *Resolver) result(ctx context.Context, rec *common.Recipe, user common.User, fromDatabase bool) *ResolveResult {
	res := &ResolveResult{
		Recipe:       rec,
		RecipeID:     rec.ID,
		FromDatabase: fromDatabase,
	}
	if r.bookmarks == nil || user.ID.IsZero() {
		return res
	}

	saved, err := r.bookmarks.IsSaved(ctx, user, rec.ID)
	if err != nil {
		common.LogWarn("查詢收藏狀態失敗", zap.String("recipe_id", rec.ID.String()), zap.Error(err))
		return res
	}
	res.IsSaved = saved
	return res
}
