package storage

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCollection() []common.Recipe {
	return []common.Recipe{
		{
			ID:          1,
			Name:        "Pasta Carbonara",
			Ingredients: []string{"pasta", "eggs", "bacon"},
			PrepTime:    20,
			Difficulty:  "Easy",
			Category:    "Main Course",
			IsFavorite:  true,
			CreatedAt:   "2025-01-01",
		},
		{
			ID:          3,
			Name:        "Chocolate Cookies",
			Ingredients: []string{"flour", "butter"},
			Difficulty:  "Easy",
			Category:    "Dessert",
			YouTubeURL:  "https://www.youtube.com/watch?v=example",
			CreatedAt:   "2025-01-02",
		},
	}
}

// exerciseStore 驗證所有後端共同的契約
func exerciseStore(t *testing.T, store RecordStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	require.NoError(t, store.Save(ctx, sampleCollection()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCollection(), got)

	// Save 是整個集合覆寫，不是追加
	require.NoError(t, store.Save(ctx, sampleCollection()[1:]))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)

	require.NoError(t, store.Save(ctx, nil))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreInitialAndIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(sampleCollection()...)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	got[0].Ingredients[0] = "changed"

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pasta", again[0].Ingredients[0])
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recipes.json")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStoreWritesIndentedArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), sampleCollection()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[\n  {\n    \"id\": 1,")
	assert.Contains(t, text, `"prep_time": 20`)
	assert.Contains(t, text, `"youtube_url": ""`)
	assert.Contains(t, text, `"is_favorite": true`)
	assert.Contains(t, text, `"created_at": "2025-01-01"`)

	// 不留下暫存檔
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestFileStoreReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	legacy := `[
  {
    "id": 7,
    "name": "Tea",
    "ingredients": ["water", "tea leaves"],
    "instructions": "",
    "prep_time": 5,
    "difficulty": "Easy",
    "category": "Beverage",
    "youtube_url": "",
    "is_favorite": false,
    "created_at": "2025-03-04"
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, []string{"water", "tea leaves"}, got[0].Ingredients)
	assert.Equal(t, "2025-03-04", got[0].CreatedAt)
}

func TestFileStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewFileStore(filepath.Join(t.TempDir(), "recipes.json"))
	assert.ErrorIs(t, store.Save(ctx, sampleCollection()), context.Canceled)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "recipes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, config.DriverSQLite, store.Driver())
	exerciseStore(t, store)
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.db")

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleCollection()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCollection(), got)
}

func TestRedisStoreUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = NewRedisStore(ctx, config.RedisConfig{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, store.Driver())

	store, err = New(ctx, config.StorageConfig{
		Driver: config.DriverFile,
		File:   config.FileConfig{Path: filepath.Join(t.TempDir(), "r.json")},
	})
	require.NoError(t, err)
	assert.Equal(t, config.DriverFile, store.Driver())

	_, err = New(ctx, config.StorageConfig{Driver: "mongo"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Driver: config.DriverPostgres})
	assert.Error(t, err)
}
