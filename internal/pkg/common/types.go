package common

// DateLayout created_at 的日期格式 (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// 欄位預設值
const (
	DefaultDifficulty = "Easy"
	DefaultCategory   = "Main Course"
)

// Recipe 食譜
// 注意：欄位名稱與型別即為持久化格式，呈現層與匯入匯出工具都依賴它
type Recipe struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	PrepTime     int      `json:"prep_time"`
	Difficulty   string   `json:"difficulty"`
	Category     string   `json:"category"`
	YouTubeURL   string   `json:"youtube_url"`
	IsFavorite   bool     `json:"is_favorite"`
	CreatedAt    string   `json:"created_at"`
}

// Clone 深拷貝，避免呼叫端修改共享的食材切片
func (r Recipe) Clone() Recipe {
	if r.Ingredients != nil {
		r.Ingredients = append([]string(nil), r.Ingredients...)
	}
	return r
}

// CloneRecipes 深拷貝整個集合，nil 轉為空切片
func CloneRecipes(recipes []Recipe) []Recipe {
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}
