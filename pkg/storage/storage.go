package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mentor-match/config"
)

// Storage 上传文件存储接口（本地磁盘 / S3 兼容对象存储）
type Storage interface {
	// Save 将内容写入 key 对应的位置
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete 删除 key，不存在时不报错
	Delete(ctx context.Context, key string) error

	// Exists 判断 key 是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// URL 返回对外可访问的地址
	URL(key string) string
}

// New 按配置创建存储实现
// baseURL 为服务对外地址，本地存储据此拼出文件 URL
func New(cfg *config.StorageConfig, baseURL string) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir, joinURL(baseURL, cfg.PublicPath))
	case "s3":
		return NewS3Storage(&cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(path, "/")
}
