package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	recipeService "recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/infrastructure/metrics"
	"recipe-manager/internal/infrastructure/storage"
	"recipe-manager/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenStore 讀取正常，寫入與連線檢查失敗
type brokenStore struct {
	*storage.MemoryStore
}

func (brokenStore) Save(context.Context, []common.Recipe) error {
	return errors.New("disk full")
}

func (brokenStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Version: "test"},
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Storage:   config.StorageConfig{Driver: config.DriverMemory},
		Cache:     config.CacheConfig{Enabled: true, MaxSize: 32, TTL: time.Minute, CleanupInterval: time.Minute},
		RateLimit: config.RateLimitConfig{Requests: 100, Window: time.Minute},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testEnv struct {
	router  *gin.Engine
	service *recipeService.Service
	metrics *metrics.Metrics
}

func setupTestRouter(t *testing.T, cfg *config.Config, store storage.RecordStore) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	if store == nil {
		store = storage.NewMemoryStore(recipeService.SampleRecipes()...)
	}

	m := metrics.New()
	svc, err := recipeService.NewService(context.Background(), store,
		recipeService.WithSearchCache(recipeService.NewSearchCache(cfg.Cache)),
		recipeService.WithMetrics(m),
		recipeService.WithClock(func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	router, err := SetupRouter(t.Context(), cfg, svc, m)
	require.NoError(t, err)
	return &testEnv{router: router, service: svc, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestBanner(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Recipe Manager API is running!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListRecipes(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodGet, "/recipes", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	recipes := decode[[]common.Recipe](t, w)
	assert.Equal(t, recipeService.SampleRecipes(), recipes)
}

func TestListEmptyCollectionIsArray(t *testing.T) {
	env := setupTestRouter(t, nil, storage.NewMemoryStore())

	w := env.do(t, http.MethodGet, "/recipes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestGetRecipe(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodGet, "/recipes/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pasta Carbonara", decode[common.Recipe](t, w).Name)

	tests := []string{"/recipes/999", "/recipes/abc", "/recipes/1.5"}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"Recipe not found","code":"NOT_FOUND"}`, w.Body.String())
		})
	}
}

func TestCreateRecipe(t *testing.T) {
	env := setupTestRouter(t, nil, storage.NewMemoryStore())

	w := env.do(t, http.MethodPost, "/recipes", map[string]interface{}{
		"name":        "Tea",
		"ingredients": []string{"water", "tea leaves"},
		"prep_time":   5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[common.Recipe](t, w)
	assert.Equal(t, common.Recipe{
		ID:          1,
		Name:        "Tea",
		Ingredients: []string{"water", "tea leaves"},
		PrepTime:    5,
		Difficulty:  "Easy",
		Category:    "Main Course",
		CreatedAt:   "2026-05-01",
	}, created)

	w = env.do(t, http.MethodGet, "/recipes/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[common.Recipe](t, w))
}

func TestCreateIgnoresClientIDAndCreatedAt(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodPost, "/recipes", `{"id":77,"created_at":"1999-01-01","name":"X","ingredients":["y"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decode[common.Recipe](t, w)
	assert.Equal(t, 3, created.ID)
	assert.Equal(t, "2026-05-01", created.CreatedAt)
}

func TestCreateRecipeValidation(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{
			name: "missing name",
			body: map[string]interface{}{"ingredients": []string{"a"}},
			want: `{"error":"Recipe name is required","code":"INVALID_REQUEST","field":"name"}`,
		},
		{
			name: "empty ingredients",
			body: map[string]interface{}{"name": "X", "ingredients": []string{}},
			want: `{"error":"Ingredients are required","code":"INVALID_REQUEST","field":"ingredients"}`,
		},
		{
			name: "malformed json",
			body: `{"name": "X", "ingredients": [`,
			want: `{"error":"Invalid request format","code":"INVALID_REQUEST"}`,
		},
		{
			name: "wrong field type",
			body: `{"name": "X", "ingredients": "eggs"}`,
			want: `{"error":"Invalid request format","code":"INVALID_REQUEST"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/recipes", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}

	assert.Equal(t, 2, env.service.Count(context.Background()))
}

func TestReplaceRecipe(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodPut, "/recipes/1", map[string]interface{}{
		"name":        "New",
		"ingredients": []string{"a"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[common.Recipe](t, w)
	assert.Equal(t, 1, updated.ID)
	assert.Equal(t, "2025-01-01", updated.CreatedAt)
	assert.Equal(t, "New", updated.Name)
	assert.False(t, updated.IsFavorite)
	assert.Equal(t, 0, updated.PrepTime)

	w = env.do(t, http.MethodPut, "/recipes/999", map[string]interface{}{"name": "X", "ingredients": []string{"y"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/recipes/1", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ingredients", decode[common.ErrorResponse](t, w).Field)
}

func TestDeleteRecipe(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodDelete, "/recipes/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Recipe deleted successfully"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/recipes/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/recipes/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/recipes", map[string]interface{}{"name": "X", "ingredients": []string{"y"}})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, decode[common.Recipe](t, w).ID)
}

func TestSearchRecipes(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	tests := []struct {
		query string
		want  []int
	}{
		{query: "egg", want: []int{1, 2}},
		{query: "BACON", want: []int{1}},
		{query: "cookie", want: []int{2}},
		{query: "tofu", want: []int{}},
		{query: "", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/recipes/search?q="+tt.query, nil)
			assert.Equal(t, http.StatusOK, w.Code)

			ids := []int{}
			for _, r := range decode[[]common.Recipe](t, w) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	w := env.do(t, http.MethodGet, "/recipes/search", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestToggleFavorite(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodPut, "/recipes/2/favorite", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Favorite status updated"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/recipes/2", nil)
	assert.True(t, decode[common.Recipe](t, w).IsFavorite)

	w = env.do(t, http.MethodPut, "/recipes/999/favorite", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Recipe not found","code":"NOT_FOUND"}`, w.Body.String())
}

func TestStorageFailureReturns503(t *testing.T) {
	env := setupTestRouter(t, nil, brokenStore{storage.NewMemoryStore(recipeService.SampleRecipes()...)})

	w := env.do(t, http.MethodPost, "/recipes", map[string]interface{}{"name": "X", "ingredients": []string{"y"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, common.ErrCodeStorageUnavailable, decode[common.ErrorResponse](t, w).Code)

	w = env.do(t, http.MethodPut, "/recipes/1/favorite", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, http.MethodGet, "/recipes/1", nil)
	assert.True(t, decode[common.Recipe](t, w).IsFavorite)
}

func TestHealthEndpoints(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Storage struct {
			Driver  string `json:"driver"`
			Recipes int    `json:"recipes"`
		} `json:"storage"`
		Cache *recipeService.CacheStats `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, config.DriverMemory, health.Storage.Driver)
	assert.Equal(t, 2, health.Storage.Recipes)
	require.NotNil(t, health.Cache)
	assert.Equal(t, 32, health.Cache.MaxSize)

	w = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestReadyFailsWhenStoreUnreachable(t *testing.T) {
	env := setupTestRouter(t, nil, brokenStore{storage.NewMemoryStore()})

	w := env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	env.do(t, http.MethodGet, "/recipes", nil)
	env.do(t, http.MethodGet, "/recipes/999", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `recipe_http_requests_total{method="GET",route="/recipes",status="200"} 1`)
	assert.Contains(t, body, `recipe_http_requests_total{method="GET",route="/recipes/:id",status="404"} 1`)
	assert.Contains(t, body, `recipe_collection_size 2`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	env := setupTestRouter(t, cfg, nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicatePostRejected(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	env := setupTestRouter(t, cfg, nil)

	body := map[string]interface{}{"name": "X", "ingredients": []string{"y"}}
	w := env.do(t, http.MethodPost, "/recipes", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/recipes", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, common.ErrCodeTooManyRequests, decode[common.ErrorResponse](t, w).Code)

	// 不同請求體不受影響
	w = env.do(t, http.MethodPost, "/recipes", map[string]interface{}{"name": "Z", "ingredients": []string{"y"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4, env.service.Count(context.Background()))
}

func TestDefaultConfigAllowsIdenticalCreates(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.DedupWindow)

	env := setupTestRouter(t, cfg, nil)

	body := `{"name":"Tea","ingredients":["water"]}`
	w := env.do(t, http.MethodPost, "/recipes", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[common.Recipe](t, w).ID)

	w = env.do(t, http.MethodPost, "/recipes", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 4, decode[common.Recipe](t, w).ID)
	assert.Equal(t, 4, env.service.Count(context.Background()))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	env := setupTestRouter(t, cfg, nil)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/recipes", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/recipes", nil).Code)

	w := env.do(t, http.MethodGet, "/recipes", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 32
	env := setupTestRouter(t, cfg, nil)

	w := env.do(t, http.MethodPost, "/recipes", map[string]interface{}{
		"name":        strings.Repeat("x", 64),
		"ingredients": []string{"y"},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 2, env.service.Count(context.Background()))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	env := setupTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouterRequiresService(t *testing.T) {
	_, err := SetupRouter(context.Background(), testConfig(), nil, nil)
	assert.Error(t, err)
}
