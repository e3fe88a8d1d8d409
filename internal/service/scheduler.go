package service

import (
	"context"
	"fmt"
	"time"

	"LotterySync/internal/config"
	"LotterySync/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout 单次定时任务的最长执行时间
const jobTimeout = 2 * time.Hour

// Scheduler 定时导入：每日最新结果、每周补缺、午间热门游戏
type Scheduler struct {
	cron     *cron.Cron
	importer *ImportService
	cfg      config.SchedulingConfig
	logger   *logrus.Logger
}

func NewScheduler(importer *ImportService, cfg config.SchedulingConfig, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		importer: importer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register 按配置注册任务，表达式为空的任务不注册
func (s *Scheduler) Register(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) ([]model.GameOutcome, error)
	}{
		{"daily-lottery-import", s.cfg.DailyImport, s.importer.ImportAllGames},
		{"weekly-gap-fill", s.cfg.WeeklyGapFill, func(ctx context.Context) ([]model.GameOutcome, error) {
			return s.importer.ImportGapFill(ctx, nil, s.cfg.GapFillMaxContests)
		}},
		{"popular-games-midday", s.cfg.MiddayPopular, func(ctx context.Context) ([]model.GameOutcome, error) {
			return s.importer.ImportGames(ctx, s.cfg.PopularGames), nil
		}},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		job := j
		if _, err := s.cron.AddFunc(job.spec, func() { s.runJob(ctx, job.name, job.run) }); err != nil {
			return fmt.Errorf("注册定时任务%s失败: %w", job.name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("定时任务已注册")
	}
	return nil
}

func (s *Scheduler) runJob(parent context.Context, name string, run func(ctx context.Context) ([]model.GameOutcome, error)) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	start := time.Now()
	outcomes, err := run(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("job", name).Error("定时导入失败")
		return
	}
	succeeded, failed := SummarizeOutcomes(outcomes)
	entry := s.logger.WithFields(logrus.Fields{
		"job":       name,
		"succeeded": succeeded,
		"failed":    failed,
		"elapsed":   time.Since(start).String(),
	})
	if failed > 0 {
		entry.Warn("定时导入完成（部分失败）")
		return
	}
	entry.Info("定时导入完成")
}

// SummarizeOutcomes 成功与失败的游戏数
func SummarizeOutcomes(outcomes []model.GameOutcome) (succeeded, failed int) {
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries 已注册任务数
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
