package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"LotterySync/internal/interfaces"
)

// MemoryCache 进程内缓存与计数器，值按 JSON 保存，与 Redis 实现行为一致
type MemoryCache struct {
	mu       sync.Mutex
	items    map[string]memoryItem
	counters map[string]memoryCounter
	now      func() time.Time
}

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

type memoryCounter struct {
	value    int64
	expireAt time.Time
}

var (
	_ interfaces.Cache   = (*MemoryCache)(nil)
	_ interfaces.Counter = (*MemoryCache)(nil)
)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:    make(map[string]memoryItem),
		counters: make(map[string]memoryCounter),
		now:      time.Now,
	}
}

func (c *MemoryCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, out any, compute func(ctx context.Context) (any, error)) error {
	c.mu.Lock()
	item, ok := c.items[key]
	if ok && c.now().After(item.expireAt) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		return json.Unmarshal(item.value, out)
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = memoryItem{value: data, expireAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return json.Unmarshal(data, out)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
		delete(c.counters, k)
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counter, ok := c.counters[key]
	if !ok || !c.now().Before(counter.expireAt) {
		return 0, nil
	}
	return counter.value, nil
}

func (c *MemoryCache) IncrBy(_ context.Context, key string, n int64, expireAt time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counter, ok := c.counters[key]
	if !ok || !c.now().Before(counter.expireAt) {
		counter = memoryCounter{}
	}
	counter.value += n
	counter.expireAt = expireAt
	c.counters[key] = counter
	return counter.value, nil
}
