package recipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"recipe-manager/internal/infrastructure/metrics"
	"recipe-manager/internal/infrastructure/storage"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 食譜查詢與變更服務
//
// 集合在建立時載入一次並快取在記憶體。讀取持有讀鎖；每個變更持有寫鎖，
// 先建立新集合並整批寫回後端，寫入成功才替換快取，失敗時快取與後端都不變。
type Service struct {
	store   storage.RecordStore
	cache   *SearchCache
	metrics *metrics.Metrics
	now     func() time.Time
	timeout time.Duration
	seed    bool

	mu      sync.RWMutex
	recipes []Recipe
	// highWater 本進程載入或分配過的最大 id，刪除最大 id 後也不會重新分配
	highWater int
}

// Option 服務選項
type Option func(*Service)

// WithSearchCache 使用搜尋快取
func WithSearchCache(cache *SearchCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics 記錄操作指標
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock 替換時鐘，用於 created_at
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStorageTimeout 限制每次後端調用的時間
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithSeedSamples 後端沒有資料時寫入範例食譜
func WithSeedSamples(seed bool) Option {
	return func(s *Service) { s.seed = seed }
}

// NewService 創建食譜服務並載入集合
//
// 後端資料損毀或無法讀取時記錄警告並以空集合啟動；
// 後端尚無資料且啟用範例時寫入範例，寫入失敗則返回錯誤。
func NewService(ctx context.Context, store storage.RecordStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	recipes, err := s.load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNoData):
		recipes = []Recipe{}
		if s.seed {
			samples := SampleRecipes()
			if err := s.save(ctx, samples); err != nil {
				return nil, fmt.Errorf("seed sample recipes: %w", err)
			}
			recipes = samples
			common.LogInfo("Seeded sample recipes",
				zap.String("driver", store.Driver()),
				zap.Int("count", len(samples)),
			)
		}
	default:
		common.LogWarn("Failed to load recipes, starting with an empty collection",
			zap.String("driver", store.Driver()),
			zap.Error(err),
		)
		recipes = []Recipe{}
	}

	s.recipes = recipes
	s.highWater = maxID(recipes)
	s.metrics.SetCollectionSize(len(recipes))

	common.LogInfo("Recipe service initialized",
		zap.String("driver", store.Driver()),
		zap.Int("recipes", len(recipes)),
		zap.Bool("search_cache", s.cache != nil),
	)
	return s, nil
}

// List 返回完整集合，保持儲存順序
func (s *Service) List(ctx context.Context) []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.metrics.ObserveOperation("list", metrics.ResultOK)
	return common.CloneRecipes(s.recipes)
}

// Count 集合大小
func (s *Service) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

// GetByID 依 id 取得食譜
func (s *Service) GetByID(ctx context.Context, id int) (*Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.observe("get", common.ErrRecipeNotFound)
		return nil, common.ErrRecipeNotFound
	}
	s.observe("get", nil)
	r := s.recipes[idx].Clone()
	return &r, nil
}

// Create 新增食譜，id 為現有最大 id + 1
func (s *Service) Create(ctx context.Context, in Input) (*Recipe, error) {
	if err := in.Validate(); err != nil {
		s.observe("create", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := in.apply(s.nextID(), s.today())

	next := make([]Recipe, len(s.recipes), len(s.recipes)+1)
	copy(next, s.recipes)
	next = append(next, created)

	if err := s.commit(ctx, "create", next); err != nil {
		return nil, err
	}
	s.highWater = created.ID

	common.LogInfo("Recipe created",
		zap.Int("id", created.ID),
		zap.String("name", created.Name),
	)
	out := created.Clone()
	return &out, nil
}

// Replace 整筆取代食譜，保留原本的 id 與 created_at
// 未提供的選填欄位回到預設值，不沿用舊值
func (s *Service) Replace(ctx context.Context, id int, in Input) (*Recipe, error) {
	if err := in.Validate(); err != nil {
		s.observe("replace", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.observe("replace", common.ErrRecipeNotFound)
		return nil, common.ErrRecipeNotFound
	}

	createdAt := s.recipes[idx].CreatedAt
	if createdAt == "" {
		createdAt = s.today()
	}
	updated := in.apply(id, createdAt)

	next := make([]Recipe, len(s.recipes))
	copy(next, s.recipes)
	next[idx] = updated

	if err := s.commit(ctx, "replace", next); err != nil {
		return nil, err
	}

	common.LogInfo("Recipe replaced", zap.Int("id", id))
	out := updated.Clone()
	return &out, nil
}

// Delete 刪除第一筆符合 id 的食譜
func (s *Service) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.observe("delete", common.ErrRecipeNotFound)
		return common.ErrRecipeNotFound
	}

	next := make([]Recipe, 0, len(s.recipes)-1)
	next = append(next, s.recipes[:idx]...)
	next = append(next, s.recipes[idx+1:]...)

	if err := s.commit(ctx, "delete", next); err != nil {
		return err
	}

	common.LogInfo("Recipe deleted", zap.Int("id", id))
	return nil
}

// ToggleFavorite 切換收藏狀態
func (s *Service) ToggleFavorite(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.observe("toggle_favorite", common.ErrRecipeNotFound)
		return common.ErrRecipeNotFound
	}

	next := make([]Recipe, len(s.recipes))
	copy(next, s.recipes)
	next[idx].IsFavorite = !next[idx].IsFavorite

	if err := s.commit(ctx, "toggle_favorite", next); err != nil {
		return err
	}

	common.LogInfo("Recipe favorite toggled",
		zap.Int("id", id),
		zap.Bool("is_favorite", next[idx].IsFavorite),
	)
	return nil
}

// Search 依名稱或任一食材做不分大小寫的子字串比對
// 空查詢直接返回空結果，而不是整個集合
func (s *Service) Search(ctx context.Context, q string) []Recipe {
	results := []Recipe{}
	if q == "" {
		s.observe("search", nil)
		return results
	}
	lowerQuery := normalizeQuery(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	defer s.observe("search", nil)

	// 快取在讀鎖內讀寫，變更持有寫鎖並清空快取，兩者不會交錯
	if ids, ok := s.cache.Get(lowerQuery); ok {
		wanted := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		for _, r := range s.recipes {
			if _, hit := wanted[r.ID]; hit {
				results = append(results, r.Clone())
			}
		}
		return results
	}

	var ids []int
	for _, r := range s.recipes {
		if matches(r, lowerQuery) {
			results = append(results, r.Clone())
			ids = append(ids, r.ID)
		}
	}
	s.cache.Set(lowerQuery, ids)
	return results
}

// Driver 後端名稱
func (s *Service) Driver() string { return s.store.Driver() }

// Ping 檢查後端
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.storageContext(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

// CacheStats 搜尋快取統計，未啟用時為 nil
func (s *Service) CacheStats() *CacheStats {
	return s.cache.GetStats()
}

// Close 停止搜尋快取；後端由建立者關閉
func (s *Service) Close() {
	s.cache.Close()
}

// commit 寫回新集合，成功後替換快取；呼叫前需持有寫鎖
func (s *Service) commit(ctx context.Context, op string, next []Recipe) error {
	if err := s.save(ctx, next); err != nil {
		s.observe(op, err)
		return err
	}
	s.recipes = next
	s.cache.Purge()
	s.metrics.SetCollectionSize(len(next))
	s.observe(op, nil)
	return nil
}

func (s *Service) load(ctx context.Context) ([]Recipe, error) {
	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	start := time.Now()
	recipes, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNoData) {
		common.LogStorageCall("load", s.store.Driver(), time.Since(start), err)
		s.metrics.ObserveStorageFailure("load")
		return nil, err
	}
	common.LogStorageCall("load", s.store.Driver(), time.Since(start), nil)
	return recipes, err
}

func (s *Service) save(ctx context.Context, recipes []Recipe) error {
	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	start := time.Now()
	err := s.store.Save(ctx, recipes)
	common.LogStorageCall("save", s.store.Driver(), time.Since(start), err)
	if err != nil {
		s.metrics.ObserveStorageFailure("save")
		return common.NewStorageError(err)
	}
	return nil
}

func (s *Service) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// observe 依錯誤類型記錄操作結果
func (s *Service) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultOK
	switch {
	case err == nil:
	case common.IsValidationError(err):
		result = metrics.ResultInvalid
	case errors.Is(err, common.ErrRecipeNotFound):
		result = metrics.ResultNotFound
	case common.IsStorageError(err):
		result = metrics.ResultStorageErr
	default:
		result = "error"
	}
	s.metrics.ObserveOperation(op, result)
}

// indexOf 線性搜尋 id；呼叫前需持有鎖
func (s *Service) indexOf(id int) int {
	for i, r := range s.recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// nextID 呼叫前需持有寫鎖
func (s *Service) nextID() int {
	return max(s.highWater, maxID(s.recipes)) + 1
}

func (s *Service) today() string {
	return s.now().Format(common.DateLayout)
}

func maxID(recipes []Recipe) int {
	highest := 0
	for _, r := range recipes {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest
}
