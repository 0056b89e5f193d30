package storage

import (
	"context"
	"errors"
	"fmt"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore 將集合保存在單一 Redis 鍵
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore 建立 Redis 後端並測試連接
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	key := cfg.Key
	if key == "" {
		key = "recipes:collection"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// Driver 後端名稱
func (s *RedisStore) Driver() string { return config.DriverRedis }

// Key 返回集合所在的鍵
func (s *RedisStore) Key() string { return s.key }

// Load 讀取集合
func (s *RedisStore) Load(ctx context.Context) ([]common.Recipe, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}
	return decodeCollection(data)
}

// Save 覆寫集合，不設過期時間
func (s *RedisStore) Save(ctx context.Context, recipes []common.Recipe) error {
	data, err := encodeCollection(recipes)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

// Ping 檢查連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉客戶端
func (s *RedisStore) Close() error {
	return s.client.Close()
}
