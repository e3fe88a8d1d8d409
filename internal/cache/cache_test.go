package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompute struct {
	calls int
	value any
	err   error
}

func (c *countingCompute) fn(context.Context) (any, error) {
	c.calls++
	return c.value, c.err
}

func TestMemoryCacheGetOrCompute(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	compute := &countingCompute{value: []int{4, 5, 30}}
	var out []int
	require.NoError(t, c.GetOrCompute(ctx, "recent", time.Hour, &out, compute.fn))
	require.NoError(t, c.GetOrCompute(ctx, "recent", time.Hour, &out, compute.fn))
	assert.Equal(t, []int{4, 5, 30}, out)
	assert.Equal(t, 1, compute.calls)

	now = now.Add(2 * time.Hour)
	require.NoError(t, c.GetOrCompute(ctx, "recent", time.Hour, &out, compute.fn))
	assert.Equal(t, 2, compute.calls)

	require.NoError(t, c.Delete(ctx, "recent"))
	require.NoError(t, c.GetOrCompute(ctx, "recent", time.Hour, &out, compute.fn))
	assert.Equal(t, 3, compute.calls)
}

func TestMemoryCacheComputeErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	failing := &countingCompute{err: errors.New("db down")}
	var out bool
	assert.Error(t, c.GetOrCompute(ctx, "k", time.Hour, &out, failing.fn))
	assert.Error(t, c.GetOrCompute(ctx, "k", time.Hour, &out, failing.fn))
	assert.Equal(t, 2, failing.calls)
}

func TestMemoryCounterExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	endOfDay := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	v, err := c.IncrBy(ctx, "quota", 5, endOfDay)
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
	v, err = c.IncrBy(ctx, "quota", 3, endOfDay)
	require.NoError(t, err)
	assert.EqualValues(t, 8, v)

	now = endOfDay.Add(time.Minute)
	v, err = c.Get(ctx, "quota")
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return mr, NewRedisCache(client, "lottery:", logger)
}

func TestRedisCacheGetOrCompute(t *testing.T) {
	ctx := context.Background()
	mr, c := newMiniRedis(t)

	compute := &countingCompute{value: true}
	var out bool
	require.NoError(t, c.GetOrCompute(ctx, "lottery_game_exists_megasena", time.Hour, &out, compute.fn))
	require.NoError(t, c.GetOrCompute(ctx, "lottery_game_exists_megasena", time.Hour, &out, compute.fn))
	assert.True(t, out)
	assert.Equal(t, 1, compute.calls)
	assert.True(t, mr.Exists("lottery:lottery_game_exists_megasena"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, c.GetOrCompute(ctx, "lottery_game_exists_megasena", time.Hour, &out, compute.fn))
	assert.Equal(t, 2, compute.calls)
}

func TestRedisCounter(t *testing.T) {
	ctx := context.Background()
	_, c := newMiniRedis(t)
	expireAt := time.Now().Add(time.Hour)

	v, err := c.Get(ctx, "lottery_games_generated:1.2.3.4:2025-01-01")
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	v, err = c.IncrBy(ctx, "lottery_games_generated:1.2.3.4:2025-01-01", 4, expireAt)
	require.NoError(t, err)
	assert.EqualValues(t, 4, v)
	v, err = c.Get(ctx, "lottery_games_generated:1.2.3.4:2025-01-01")
	require.NoError(t, err)
	assert.EqualValues(t, 4, v)
}
