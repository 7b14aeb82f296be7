package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PNGCache caches rendered QR images by box and width.
type PNGCache interface {
	Get(ctx context.Context, boxID uint64, width int) ([]byte, bool)
	Set(ctx context.Context, boxID uint64, width int, png []byte)
}

// RedisPNGCache 基于 Redis 的二维码图片缓存
type RedisPNGCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPNGCache(rdb *redis.Client, ttl time.Duration) *RedisPNGCache {
	return &RedisPNGCache{rdb: rdb, ttl: ttl}
}

func pngKey(boxID uint64, width int) string {
	return fmt.Sprintf("qr:png:%d:%d", boxID, width)
}

// Get 未命中或 Redis 异常都按未命中处理
func (c *RedisPNGCache) Get(ctx context.Context, boxID uint64, width int) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, pngKey(boxID, width)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *RedisPNGCache) Set(ctx context.Context, boxID uint64, width int, png []byte) {
	c.rdb.Set(ctx, pngKey(boxID, width), png, c.ttl)
}
