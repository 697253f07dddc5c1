package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pantry-chef/internal/core/content"
	"pantry-chef/internal/core/quota"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/mock"
)

// savedRow 假內容庫中的收藏關聯
type savedRow struct {
	ID         common.ID `json:"id"`
	DocumentID string    `json:"documentId"`
	User       common.ID `json:"user"`
	Recipe     common.ID `json:"recipe"`
	SavedAt    string    `json:"savedAt"`
}

type pantryRow struct {
	common.PantryItem
	Owner common.ID
}

// fakeStore 以記憶體模擬 Strapi 的篩選語意
type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	recipes  []common.Recipe
	saved    []savedRow
	pantry   []pantryRow
	findErr  map[string]error
	createEr map[string]error
	// uniqueTitles 模擬內容庫對 title 的唯一性限制
	uniqueTitles bool
	calls        map[string]int
	deleted      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   100,
		findErr:  map[string]error{},
		createEr: map[string]error{},
		calls:    map[string]int{},
	}
}

func (s *fakeStore) newID() (common.ID, string) {
	s.nextID++
	return common.ID(strconv.Itoa(s.nextID)), fmt.Sprintf("doc%d", s.nextID)
}

func filterValue(q content.Query, path string, op content.Op) (string, bool) {
	for _, f := range q.Filters {
		if strings.Join(f.Path, ".") == path && f.Op == op {
			return f.Value, true
		}
	}
	return "", false
}

func roundTrip(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *fakeStore) Find(ctx context.Context, collection string, q content.Query, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["find:"+collection]++
	if err := s.findErr[collection]; err != nil {
		return err
	}

	switch collection {
	case content.CollectionRecipes:
		title, _ := filterValue(q, "title", content.OpEqI)
		var matches []common.Recipe
		for _, r := range s.recipes {
			if strings.EqualFold(r.Title, title) {
				matches = append(matches, r)
			}
		}
		return roundTrip(limit(matches, q.PageSize), out)

	case content.CollectionSavedRecipes:
		user, _ := filterValue(q, "user.id", content.OpEq)
		recipe, hasRecipe := filterValue(q, "recipe.id", content.OpEq)
		var matches []common.SavedRecipe
		for _, row := range s.saved {
			if row.User.String() != user || (hasRecipe && row.Recipe.String() != recipe) {
				continue
			}
			item := common.SavedRecipe{ID: row.ID, DocumentID: row.DocumentID, SavedAt: row.SavedAt}
			for i := range s.recipes {
				if s.recipes[i].ID == row.Recipe && len(q.Populate) > 0 {
					r := s.recipes[i]
					item.Recipe = &r
				}
			}
			matches = append(matches, item)
		}
		return roundTrip(limit(matches, q.PageSize), out)

	case content.CollectionPantryItems:
		owner, _ := filterValue(q, "owner.id", content.OpEq)
		matches := []common.PantryItem{}
		for _, row := range s.pantry {
			if row.Owner.String() == owner {
				matches = append(matches, row.PantryItem)
			}
		}
		return roundTrip(paginate(matches, q.Page, q.PageSize), out)
	}
	return fmt.Errorf("unknown collection %s", collection)
}

func limit[T any](items []T, n int) []T {
	if items == nil {
		items = []T{}
	}
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// paginate 模擬 Strapi 的 pagination[page] 與 pagination[pageSize]
func paginate[T any](items []T, number, size int) []T {
	if size <= 0 {
		return items
	}
	if number < 1 {
		number = 1
	}
	start := (number - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *fakeStore) Create(ctx context.Context, collection string, payload any, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["create:"+collection]++
	if err := s.createEr[collection]; err != nil {
		return err
	}

	switch collection {
	case content.CollectionRecipes:
		var r common.Recipe
		if err := roundTrip(payload, &r); err != nil {
			return err
		}
		if s.uniqueTitles {
			for _, existing := range s.recipes {
				if strings.EqualFold(existing.Title, r.Title) {
					return common.ErrStoreValidation.Wrap(errors.New("This attribute must be unique"))
				}
			}
		}
		r.ID, r.DocumentID = s.newID()
		s.recipes = append(s.recipes, r)
		if out == nil {
			return nil
		}
		return roundTrip(r, out)

	case content.CollectionSavedRecipes:
		var row savedRow
		if err := roundTrip(payload, &row); err != nil {
			return err
		}
		row.ID, row.DocumentID = s.newID()
		s.saved = append(s.saved, row)
		if out == nil {
			return nil
		}
		return roundTrip(common.SavedRecipe{ID: row.ID, DocumentID: row.DocumentID, SavedAt: row.SavedAt}, out)
	}
	return fmt.Errorf("unknown collection %s", collection)
}

func (s *fakeStore) Delete(ctx context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["delete:"+collection]++
	s.deleted = append(s.deleted, id)

	if collection != content.CollectionSavedRecipes {
		return fmt.Errorf("unexpected delete on %s", collection)
	}
	kept := s.saved[:0]
	for _, row := range s.saved {
		if row.DocumentID != id && row.ID.String() != id {
			kept = append(kept, row)
		}
	}
	s.saved = kept
	return nil
}

func (s *fakeStore) addPantry(owner common.ID, names ...string) {
	for _, n := range names {
		id, doc := s.newID()
		s.pantry = append(s.pantry, pantryRow{
			PantryItem: common.PantryItem{ID: id, DocumentID: doc, Name: n},
			Owner:      owner,
		})
	}
}

// scriptedCompleter 依序回傳預先設定的 AI 回應
type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (c *scriptedCompleter) ProcessRequest(ctx context.Context, kind string, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	out := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return out, nil
}

// countingGenerator 記錄生成次數並回傳固定食譜
type countingGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *countingGenerator) GenerateRecipe(ctx context.Context, title string) (*common.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &common.Recipe{
		Title:        title,
		Description:  "Generated " + title,
		Category:     "dessert",
		Cuisine:      "american",
		PrepTime:     10,
		CookTime:     20,
		Servings:     4,
		Ingredients:  []common.RecipeIngredient{{Item: "flour", Amount: "2 cups"}},
		Instructions: []common.RecipeStep{{Step: 1, Instruction: "Mix."}},
	}, nil
}

type fakeImages struct {
	url string
	err error
}

func (f fakeImages) FindImage(ctx context.Context, query string) (string, error) {
	return f.url, f.err
}

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	err      error
	released int
}

func (l *fakeLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

type failingChecker struct{}

func (failingChecker) IsSaved(ctx context.Context, user common.User, recipeID common.ID) (bool, error) {
	return false, common.ErrStoreUnavailable
}

type mockPolicy struct {
	mock.Mock
}

func (m *mockPolicy) Check(ctx context.Context, key string, requested int64, rule quota.Rule) (quota.Decision, error) {
	args := m.Called(ctx, key, requested, rule)
	return args.Get(0).(quota.Decision), args.Error(1)
}

type stubSuggester struct {
	calls       int
	ingredients string
	out         []common.RecipeSuggestion
	err         error
}

func (s *stubSuggester) SuggestRecipes(ctx context.Context, ingredients string) ([]common.RecipeSuggestion, error) {
	s.calls++
	s.ingredients = ingredients
	return s.out, s.err
}
