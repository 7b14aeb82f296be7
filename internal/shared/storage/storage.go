package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/config"
)

// 存储驱动
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

var ErrDisabled = errors.New("object storage not configured")

// ObjectStore is where photos and generated PDFs are kept.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns a time-limited download link.
	URL(ctx context.Context, key string, expire time.Duration) (string, error)
}

// New returns nil and ErrDisabled when no driver is configured.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "":
		return nil, ErrDisabled
	case DriverMinIO:
		return NewMinIOStore(cfg)
	case DriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Key 按日期分目录的对象键
func Key(prefix, name string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s", prefix, now.Format("2006/01/02"), name)
}
