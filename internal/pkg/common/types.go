package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID 內容庫記錄識別碼，可能以數字或字串回傳
type ID string

// UnmarshalJSON 同時接受 JSON 數字與字串
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON 純數字的 ID 以數字輸出，其餘以字串輸出
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// IsNumeric 是否為純數字
func (id ID) IsNumeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(string(id), 10, 64)
	return err == nil
}

// String 實現 fmt.Stringer
func (id ID) String() string {
	return string(id)
}

// IsZero 是否為空
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Tier 訂閱方案
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ParseTier 未知方案一律視為免費方案
func ParseTier(s string) Tier {
	if strings.EqualFold(strings.TrimSpace(s), string(TierPro)) {
		return TierPro
	}
	return TierFree
}

// User 由身分提供者簽發的使用者
type User struct {
	ID         ID     `json:"id"`         // 內容庫中的使用者 ID
	ExternalID string `json:"externalId"` // 身分提供者的 subject
	Tier       Tier   `json:"subscriptionTier"`
}

// IsPro 是否為付費方案
func (u User) IsPro() bool {
	return u.Tier == TierPro
}

// PantryItem 食材庫存項目
type PantryItem struct {
	ID         ID     `json:"id"`
	DocumentID string `json:"documentId,omitempty"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity,omitempty"`
}

// RecipeIngredient 食譜食材
type RecipeIngredient struct {
	Item   string `json:"item" validate:"required"`
	Amount string `json:"amount"`
}

// RecipeStep 食譜步驟
type RecipeStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Instruction string `json:"instruction" validate:"required"`
	Tip         string `json:"tip,omitempty"`
}

// Nutrition 每份營養資訊（顯示用字串，例如 "350 kcal"）
type Nutrition struct {
	Calories string `json:"calories,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Fat      string `json:"fat,omitempty"`
}

// Recipe 食譜記錄
type Recipe struct {
	ID           ID                 `json:"id,omitempty"`
	DocumentID   string             `json:"documentId,omitempty"`
	Title        string             `json:"title" validate:"required"`
	Description  string             `json:"description"`
	Cuisine      string             `json:"cuisine"`
	Category     string             `json:"category"`
	PrepTime     int                `json:"prepTime" validate:"gte=0"`
	CookTime     int                `json:"cookTime" validate:"gte=0"`
	Servings     int                `json:"servings" validate:"gte=1"`
	Ingredients  []RecipeIngredient `json:"ingredients" validate:"min=1,dive"`
	Instructions []RecipeStep       `json:"instructions" validate:"min=1,dive"`
	Tips         []string           `json:"tips,omitempty"`
	Nutrition    *Nutrition         `json:"nutrition,omitempty"`
	ImageURL     string             `json:"imageUrl,omitempty"`
}

// SavedRecipe 使用者收藏關聯
type SavedRecipe struct {
	ID         ID      `json:"id"`
	DocumentID string  `json:"documentId,omitempty"`
	SavedAt    string  `json:"savedAt"`
	Recipe     *Recipe `json:"recipe,omitempty"`
}

// RecipeSuggestion 依食材推薦的食譜（不落地）
type RecipeSuggestion struct {
	Title              string   `json:"title" validate:"required"`
	Description        string   `json:"description"`
	MatchPercentage    int      `json:"matchPercentage"`
	MissingIngredients []string `json:"missingIngredients"`
	Category           string   `json:"category"`
	Cuisine            string   `json:"cuisine"`
	PrepTime           int      `json:"prepTime"`
	CookTime           int      `json:"cookTime"`
	Servings           int      `json:"servings"`
	CategoryEmoji      string   `json:"categoryEmoji,omitempty"`
	CuisineFlag        string   `json:"cuisineFlag,omitempty"`
}
