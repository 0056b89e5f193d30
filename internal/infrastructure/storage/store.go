// Package storage 提供食譜集合的持久化後端。
//
// 每個後端都以整個集合為單位讀寫：Load 回傳完整集合，Save 覆寫完整集合，
// 持久化格式一律為 Recipe 物件的 JSON 陣列。
package storage

import (
	"context"
	"errors"
	"fmt"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"
)

// ErrNoData 表示後端尚未持久化任何集合（例如檔案不存在）
var ErrNoData = errors.New("no recipe collection persisted")

// RecordStore 食譜集合的儲存介面
type RecordStore interface {
	// Load 讀取完整集合；尚無資料時回傳 ErrNoData
	Load(ctx context.Context) ([]common.Recipe, error)
	// Save 以 recipes 覆寫完整集合
	Save(ctx context.Context, recipes []common.Recipe) error
	// Ping 檢查後端是否可用
	Ping(ctx context.Context) error
	// Driver 後端名稱
	Driver() string
	// Close 釋放連線
	Close() error
}

// New 依設定建立對應的儲存後端
func New(ctx context.Context, cfg config.StorageConfig) (RecordStore, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.File.Path), nil
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.Postgres.DSN)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.DriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// decodeCollection 解析持久化的 JSON 陣列
func decodeCollection(data []byte) ([]common.Recipe, error) {
	var recipes []common.Recipe
	if err := common.ParseJSONBytes(data, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if recipes == nil {
		recipes = []common.Recipe{}
	}
	return recipes, nil
}

// encodeCollection 序列化集合，nil 一律輸出為 []
func encodeCollection(recipes []common.Recipe) ([]byte, error) {
	if recipes == nil {
		recipes = []common.Recipe{}
	}
	data, err := common.MarshalIndent(recipes)
	if err != nil {
		return nil, fmt.Errorf("encode recipes: %w", err)
	}
	return data, nil
}
