package queue

import (
	"context"
	"sync"

	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"github.com/sirupsen/logrus"
)

// Handler 处理单个导入任务
type Handler func(ctx context.Context, task model.ImportTask) error

// Consumer 启动 workers 个协程消费任务，ctx 取消后等待全部协程退出再返回
type Consumer interface {
	Consume(ctx context.Context, workers int, handle Handler)
}

// MemoryQueue 进程内有界队列，未配置 Redis 时使用
type MemoryQueue struct {
	tasks  chan model.ImportTask
	logger *logrus.Logger
}

var (
	_ interfaces.TaskQueue = (*MemoryQueue)(nil)
	_ Consumer             = (*MemoryQueue)(nil)
)

func NewMemoryQueue(size int, logger *logrus.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryQueue{tasks: make(chan model.ImportTask, size), logger: logger}
}

// Enqueue 队列满时阻塞，直到 ctx 取消
func (q *MemoryQueue) Enqueue(ctx context.Context, tasks ...model.ImportTask) error {
	for _, t := range tasks {
		select {
		case q.tasks <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (q *MemoryQueue) Consume(ctx context.Context, workers int, handle Handler) {
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-q.tasks:
					runTask(ctx, q.logger, id, task, handle)
				}
			}
		}(i)
	}
	wg.Wait()
}

// runTask 单个任务 panic 不影响 worker
func runTask(ctx context.Context, logger *logrus.Logger, workerID int, task model.ImportTask, handle Handler) {
	defer func() {
		if p := recover(); p != nil {
			logger.WithFields(logrus.Fields{
				"worker":  workerID,
				"job_id":  task.JobID,
				"game":    task.Game,
				"contest": task.ContestNumber,
			}).Errorf("导入任务panic: %v", p)
		}
	}()
	_ = handle(ctx, task)
}
