package queue

import (
	"context"
	"errors"

	"LotterySync/internal/interfaces"
	"LotterySync/internal/model"

	"github.com/sirupsen/logrus"
)

// Worker 用 ImportContest 执行后台导入任务
type Worker struct {
	importer interfaces.ContestImporter
	logger   *logrus.Logger
}

func NewWorker(importer interfaces.ContestImporter, logger *logrus.Logger) *Worker {
	return &Worker{importer: importer, logger: logger}
}

func (w *Worker) Handle(ctx context.Context, task model.ImportTask) error {
	entry := w.logger.WithFields(logrus.Fields{
		"job_id":  task.JobID,
		"game":    task.Game,
		"contest": task.ContestNumber,
	})
	res, err := w.importer.ImportContest(ctx, task.Game, task.ContestNumber)
	if err != nil {
		entry.WithError(err).Error("后台导入失败")
		return err
	}
	if !res.Success {
		entry.WithField("error", res.Error).Warn("后台导入未成功")
		return errors.New(res.Error)
	}
	if res.AlreadyExisted {
		entry.Debug("开奖已存在，跳过")
		return nil
	}
	entry.WithField("prizes", res.PrizesCount).Info("后台导入完成")
	return nil
}
