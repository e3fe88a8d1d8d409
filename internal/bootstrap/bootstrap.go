// Package bootstrap 按配置组装数据库、缓存、队列与各服务，供 HTTP 服务与导入命令共用
package bootstrap

import (
	"context"
	"fmt"

	"LotterySync/internal/adapter"
	"LotterySync/internal/adapter/caixa" // init 中注册 caixa 数据源
	"LotterySync/internal/cache"
	"LotterySync/internal/catalog"
	"LotterySync/internal/config"
	"LotterySync/internal/interfaces"
	"LotterySync/internal/queue"
	"LotterySync/internal/repository"
	"LotterySync/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const redisKeyPrefix = "lottery:"

// App 组装完成的依赖
type App struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Store     *repository.LotteryRepository
	Catalog   interfaces.GameCatalog
	Queue     queue.Consumer
	Worker    *queue.Worker
	Importer  *service.ImportService
	Generator *service.GeneratorService
	Results   *service.ResultsService
}

// NewLogger 日志级别随 gin 模式：debug 输出 Debug 日志
func NewLogger(mode string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if mode == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// New 连接 PostgreSQL（及可选的 Redis）后组装全部服务
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	db, err := repository.OpenPostgres(cfg.Database, cfg.Server.Mode, logger)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.WithField("addr", cfg.Redis.Addr).Info("Redis连接成功")
	}
	return Build(ctx, cfg, db, rdb, logger)
}

// Build 在已有连接上组装服务；rdb 为 nil 时缓存与队列使用进程内实现
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, logger *logrus.Logger) (*App, error) {
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return nil, fmt.Errorf("数据库表结构迁移失败: %w", err)
		}
		logger.Info("数据库表结构检查完成（不存在则已创建）")
	}

	store := repository.NewLotteryRepository(db)
	games := cfg.Lottery.Games
	if games.Source == "database" {
		if err := repository.SeedGames(ctx, store, games.Catalog); err != nil {
			return nil, fmt.Errorf("初始化游戏目录失败: %w", err)
		}
	}

	var (
		c       interfaces.Cache
		counter interfaces.Counter
		tasks   interfaces.TaskQueue
		cons    queue.Consumer
	)
	perf := cfg.Lottery.Performance
	if rdb != nil {
		rc := cache.NewRedisCache(rdb, redisKeyPrefix, logger)
		c, counter = rc, rc
		rq := queue.NewRedisQueue(rdb, perf.QueueName, logger)
		tasks, cons = rq, rq
	} else {
		mc := cache.NewMemoryCache()
		c, counter = mc, mc
		mq := queue.NewMemoryQueue(perf.QueueSize, logger)
		tasks, cons = mq, mq
	}

	cat, err := catalog.New(games, store, c, perf.CacheTTLDuration(), logger)
	if err != nil {
		return nil, err
	}
	client, err := adapter.NewLotteryClient(&cfg.Lottery.API, logger)
	if err != nil {
		return nil, err
	}

	importer := service.NewImportService(
		client,
		caixa.NewNormalizer(cfg.Lottery.API.NumbersMode, logger),
		store,
		cat,
		tasks,
		perf,
		logger,
	)
	generator := service.NewGeneratorService(games.Shapes, store, c, counter, cfg.Lottery.Generator, nil, logger)
	results := service.NewResultsService(store, repository.NewDrawQueryRepository(db), cat, generator, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     rdb,
		Store:     store,
		Catalog:   cat,
		Queue:     cons,
		Worker:    queue.NewWorker(importer, logger),
		Importer:  importer,
		Generator: generator,
		Results:   results,
	}, nil
}

// Close 关闭数据库与 Redis 连接
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.WithError(err).Warn("关闭Redis连接失败")
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.WithError(err).Warn("关闭数据库连接失败")
		}
	}
}
