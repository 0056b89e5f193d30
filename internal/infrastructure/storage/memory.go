package storage

import (
	"context"
	"sync"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"
)

// MemoryStore 進程內的集合，重啟後資料消失
type MemoryStore struct {
	mu        sync.Mutex
	recipes   []common.Recipe
	persisted bool
}

// NewMemoryStore 建立記憶體後端；傳入 initial 時視為已有持久化資料
func NewMemoryStore(initial ...common.Recipe) *MemoryStore {
	s := &MemoryStore{}
	if len(initial) > 0 {
		s.recipes = common.CloneRecipes(initial)
		s.persisted = true
	}
	return s
}

// Driver 後端名稱
func (s *MemoryStore) Driver() string { return config.DriverMemory }

// Load 返回集合的拷貝
func (s *MemoryStore) Load(ctx context.Context) ([]common.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.persisted {
		return nil, ErrNoData
	}
	return common.CloneRecipes(s.recipes), nil
}

// Save 覆寫集合
func (s *MemoryStore) Save(ctx context.Context, recipes []common.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = common.CloneRecipes(recipes)
	s.persisted = true
	return nil
}

// Ping 永遠可用
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// Close 無資源
func (s *MemoryStore) Close() error { return nil }
