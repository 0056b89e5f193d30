package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"recipe-manager/internal/infrastructure/config"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var sqliteDialect = sqlDialect{
	driver: config.DriverSQLite,
	ddl: `CREATE TABLE IF NOT EXISTS recipe_collection (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	selectQ: `SELECT payload FROM recipe_collection WHERE name = ?`,
	upsertQ: `INSERT INTO recipe_collection(name, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
}

// SQLiteStore 以 SQLite 單列保存集合
type SQLiteStore struct {
	*sqlStore
	path string
}

// NewSQLiteStore 開啟（必要時建立）SQLite 資料庫
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "recipes.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 單一寫入者，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	store, err := openSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: store, path: path}, nil
}

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }
