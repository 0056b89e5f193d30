package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recipe-manager/internal/pkg/common"
)

// collectionName 集合在 recipe_collection 表中的主鍵
const collectionName = "recipes"

// sqlDialect 各資料庫的 SQL 語句
type sqlDialect struct {
	driver  string
	ddl     string
	selectQ string
	upsertQ string
}

// sqlStore 將整個集合保存為單列 JSON，供 sqlite 與 postgres 共用
type sqlStore struct {
	db      *sql.DB
	dialect sqlDialect
}

func openSQLStore(ctx context.Context, db *sql.DB, dialect sqlDialect) (*sqlStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.driver, err)
	}
	if _, err := db.ExecContext(ctx, dialect.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create recipe_collection table: %w", err)
	}
	return &sqlStore{db: db, dialect: dialect}, nil
}

// Driver 後端名稱
func (s *sqlStore) Driver() string { return s.dialect.driver }

// Load 讀取集合列
func (s *sqlStore) Load(ctx context.Context) ([]common.Recipe, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.selectQ, collectionName).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("select recipe collection: %w", err)
	}
	return decodeCollection(payload)
}

// Save 以 upsert 覆寫集合列
func (s *sqlStore) Save(ctx context.Context, recipes []common.Recipe) error {
	data, err := encodeCollection(recipes)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertQ, collectionName, data); err != nil {
		return fmt.Errorf("upsert recipe collection: %w", err)
	}
	return nil
}

// Ping 檢查連線
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 關閉連線池
func (s *sqlStore) Close() error {
	return s.db.Close()
}
