package storage

import (
	"context"
	"database/sql"
	"fmt"

	"recipe-manager/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var postgresDialect = sqlDialect{
	driver: config.DriverPostgres,
	ddl: `CREATE TABLE IF NOT EXISTS recipe_collection (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	selectQ: `SELECT payload FROM recipe_collection WHERE name = $1`,
	upsertQ: `INSERT INTO recipe_collection(name, payload, updated_at) VALUES($1, $2, now())
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
}

// PostgresStore 以 Postgres JSONB 單列保存集合
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore 連線 Postgres 並建立資料表
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store, err := openSQLStore(ctx, db, postgresDialect)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: store}, nil
}
