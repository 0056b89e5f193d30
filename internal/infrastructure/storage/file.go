package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"
)

// FileStore 以單一 JSON 檔案保存集合
type FileStore struct {
	path string
}

// NewFileStore 建立檔案後端，path 為空時使用 recipes.json
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "recipes.json"
	}
	return &FileStore{path: path}
}

// Path 返回檔案路徑
func (s *FileStore) Path() string { return s.path }

// Driver 後端名稱
func (s *FileStore) Driver() string { return config.DriverFile }

// Load 讀取整個檔案
func (s *FileStore) Load(ctx context.Context) ([]common.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return decodeCollection(data)
}

// Save 寫入暫存檔後 rename，避免留下寫到一半的檔案
func (s *FileStore) Save(ctx context.Context, recipes []common.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeCollection(recipes)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Ping 檢查檔案所在目錄是否存在
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Close 檔案後端不持有資源
func (s *FileStore) Close() error { return nil }
