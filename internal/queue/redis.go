package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisQueue 任务以 JSON 存在 Redis list 中，LPUSH 入队、BRPOP 出队
type RedisQueue struct {
	client     *redis.Client
	key        string
	popTimeout time.Duration
	logger     *logrus.Logger
}

var (
	_ interfaces.TaskQueue = (*RedisQueue)(nil)
	_ Consumer             = (*RedisQueue)(nil)
)

func NewRedisQueue(client *redis.Client, name string, logger *logrus.Logger) *RedisQueue {
	return &RedisQueue{
		client:     client,
		key:        "queue:" + name,
		popTimeout: 2 * time.Second,
		logger:     logger,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, tasks ...model.ImportTask) error {
	if len(tasks) == 0 {
		return nil
	}
	payloads, err := interfaces.JSONValues(tasks)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payloads...).Err()
}

// Len 队列中待处理任务数
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Consume(ctx context.Context, workers int, handle Handler) {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for ctx.Err() == nil {
				task, ok := q.pop(ctx, id)
				if !ok {
					continue
				}
				runTask(ctx, q.logger, id, task, handle)
			}
		}(i)
	}
	wg.Wait()
}

func (q *RedisQueue) pop(ctx context.Context, workerID int) (model.ImportTask, bool) {
	var task model.ImportTask
	res, err := q.client.BRPop(ctx, q.popTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return task, false
		}
		q.logger.WithError(err).WithField("worker", workerID).Warn("从Redis队列取任务失败")
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return task, false
	}
	// res[0] 为 key，res[1] 为任务
	if len(res) != 2 {
		return task, false
	}
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		q.logger.WithError(err).WithField("payload", res[1]).Error("导入任务反序列化失败，丢弃")
		return task, false
	}
	return task, true
}
