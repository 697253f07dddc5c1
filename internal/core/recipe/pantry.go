package recipe

import (
	"context"

	"pantry-chef/internal/core/content"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	pantryPageSize = 100
	// pantryMaxPages 限制單次讀取的頁數
	pantryMaxPages = 20
)

// Pantry 讀取使用者食材庫存
type Pantry struct {
	store Store
}

var _ PantryReader = (*Pantry)(nil)

// NewPantry 創建食材庫存讀取器
func NewPantry(store Store) *Pantry {
	return &Pantry{store: store}
}

// List 逐頁讀取使用者擁有的所有食材
func (p *Pantry) List(ctx context.Context, user common.User) ([]common.PantryItem, error) {
	if user.ID.IsZero() {
		return nil, common.ErrUnauthorized
	}

	items := []common.PantryItem{}
	for page := 1; page <= pantryMaxPages; page++ {
		var batch []common.PantryItem
		q := content.Query{
			Filters:  []content.Filter{content.Eq(user.ID.String(), "owner", "id")},
			Sort:     []string{"name:asc"},
			PageSize: pantryPageSize,
			Page:     page,
		}
		if err := p.store.Find(ctx, content.CollectionPantryItems, q, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)
		if len(batch) < pantryPageSize {
			return items, nil
		}
	}

	common.LogWarn("食材數量超過讀取上限，僅使用前幾頁",
		zap.String("user_id", user.ID.String()),
		zap.Int("items", len(items)),
	)
	return items, nil
}
