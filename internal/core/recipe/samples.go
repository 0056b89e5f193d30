package recipe

// SampleRecipes 首次啟動且後端沒有任何資料時寫入的範例
func SampleRecipes() []Recipe {
	return []Recipe{
		{
			ID:           1,
			Name:         "Pasta Carbonara",
			Ingredients:  []string{"pasta", "eggs", "bacon", "cheese", "pepper"},
			Instructions: "Cook pasta. Mix eggs and cheese. Combine with hot pasta and bacon.",
			PrepTime:     20,
			Difficulty:   "Easy",
			Category:     "Main Course",
			YouTubeURL:   "",
			IsFavorite:   true,
			CreatedAt:    "2025-01-01",
		},
		{
			ID:           2,
			Name:         "Chocolate Cookies",
			Ingredients:  []string{"flour", "butter", "sugar", "chocolate chips", "eggs"},
			Instructions: "Mix ingredients. Bake at 350F for 12 minutes.",
			PrepTime:     30,
			Difficulty:   "Easy",
			Category:     "Dessert",
			YouTubeURL:   "https://www.youtube.com/watch?v=example",
			IsFavorite:   false,
			CreatedAt:    "2025-01-02",
		},
	}
}
