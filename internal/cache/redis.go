package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient 创建客户端并 PING 确认可用
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}
	return client, nil
}

// RedisCache 基于 Redis 的缓存与计数器
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *logrus.Logger
}

var (
	_ interfaces.Cache   = (*RedisCache)(nil)
	_ interfaces.Counter = (*RedisCache)(nil)
)

func NewRedisCache(client *redis.Client, prefix string, logger *logrus.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// GetOrCompute Redis 读失败时直接计算，不阻断业务
func (c *RedisCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, out any, compute func(ctx context.Context) (any, error)) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case err == nil:
		if uerr := json.Unmarshal(data, out); uerr == nil {
			return nil
		}
		c.logger.WithField("key", key).Warn("缓存内容无法解析，重新计算")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WithError(err).WithField("key", key).Warn("读取Redis缓存失败，直接计算")
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}
	data, err = json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("写入Redis缓存失败")
	}
	return json.Unmarshal(data, out)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, c.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// IncrBy INCRBY 与 EXPIREAT 放在同一事务中执行
func (c *RedisCache) IncrBy(ctx context.Context, key string, n int64, expireAt time.Time) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.IncrBy(ctx, c.key(key), n)
	pipe.ExpireAt(ctx, c.key(key), expireAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
