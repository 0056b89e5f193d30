package recipe

import (
	"strings"

	"recipe-manager/internal/pkg/common"
)

// Recipe 食譜記錄，與持久化格式相同
type Recipe = common.Recipe

// Input 新增或整筆取代食譜時的輸入
// 指標欄位為 nil 表示未提供，套用預設值；提供空字串時照原樣保存
type Input struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions *string  `json:"instructions,omitempty"`
	PrepTime     *int     `json:"prep_time,omitempty"`
	Difficulty   *string  `json:"difficulty,omitempty"`
	Category     *string  `json:"category,omitempty"`
	YouTubeURL   *string  `json:"youtube_url,omitempty"`
	IsFavorite   *bool    `json:"is_favorite,omitempty"`
}

// Validate 檢查必填欄位，name 優先於 ingredients
func (in Input) Validate() error {
	if in.Name == "" {
		return common.NewValidationError("name", "Recipe name is required")
	}
	if len(in.Ingredients) == 0 {
		return common.NewValidationError("ingredients", "Ingredients are required")
	}
	return nil
}

// apply 由輸入建立記錄，id 與 created_at 由呼叫端決定
// Create 與 Replace 共用這裡的預設值
func (in Input) apply(id int, createdAt string) Recipe {
	r := Recipe{
		ID:          id,
		Name:        in.Name,
		Ingredients: append([]string(nil), in.Ingredients...),
		Difficulty:  common.DefaultDifficulty,
		Category:    common.DefaultCategory,
		CreatedAt:   createdAt,
	}
	if in.Instructions != nil {
		r.Instructions = *in.Instructions
	}
	if in.PrepTime != nil {
		r.PrepTime = *in.PrepTime
	}
	if in.Difficulty != nil {
		r.Difficulty = *in.Difficulty
	}
	if in.Category != nil {
		r.Category = *in.Category
	}
	if in.YouTubeURL != nil {
		r.YouTubeURL = *in.YouTubeURL
	}
	if in.IsFavorite != nil {
		r.IsFavorite = *in.IsFavorite
	}
	return r
}

// matches 判斷記錄是否符合已轉小寫的查詢字串
func matches(r Recipe, lowerQuery string) bool {
	if common.ContainsFold(r.Name, lowerQuery) {
		return true
	}
	for _, ingredient := range r.Ingredients {
		if common.ContainsFold(ingredient, lowerQuery) {
			return true
		}
	}
	return false
}

// normalizeQuery 查詢字串一律轉小寫比對
func normalizeQuery(q string) string {
	return strings.ToLower(q)
}
