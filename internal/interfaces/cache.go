package interfaces

import (
	"context"
	"time"
)

// Cache 带过期时间的读穿缓存；值以 JSON 存储，out 为解码目标指针
type Cache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, out any, compute func(ctx context.Context) (any, error)) error
	Delete(ctx context.Context, keys ...string) error
}

// Counter 按 key 计数，到 expireAt 自动清零
type Counter interface {
	Get(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, n int64, expireAt time.Time) (int64, error)
}
