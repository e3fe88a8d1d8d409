package interfaces

import (
	"context"

	"LotterySync/internal/model"
)

// TaskQueue 后台导入任务队列，Enqueue 后立即返回
type TaskQueue interface {
	Enqueue(ctx context.Context, tasks ...model.ImportTask) error
}
