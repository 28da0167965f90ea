package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey key 试图逃逸存储根目录
var ErrInvalidKey = errors.New("invalid storage key")

// LocalStorage 本地文件系统存储，文件经 /uploads 静态路由对外提供
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage 创建本地存储并确保根目录存在
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BasePath 存储根目录，供静态文件路由使用
func (s *LocalStorage) BasePath() string { return s.basePath }

func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.basePath, clean), nil
}

// Save 写入文件；写入失败时删除残留的半截文件
func (s *LocalStorage) Save(ctx context.Context, key string, reader io.Reader, contentType string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}

// Delete 删除文件
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists 判断文件是否存在
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL 返回 <baseURL>/<key>
func (s *LocalStorage) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
