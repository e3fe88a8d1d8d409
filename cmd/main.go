package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"LotterySync/internal/api"
	"LotterySync/internal/bootstrap"
	"LotterySync/internal/config"
	"LotterySync/internal/service"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := bootstrap.NewLogger(cfg.Server.Mode)
	logger.Info("配置文件加载成功")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 数据库、缓存、队列与服务
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("初始化失败: %v", err)
	}
	defer app.Close()

	// 4. 后台导入 worker
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Queue.Consume(ctx, cfg.Lottery.Performance.WorkerCount, app.Worker.Handle)
	}()
	logger.WithField("workers", cfg.Lottery.Performance.WorkerCount).Info("后台导入worker已启动")

	// 5. 定时导入
	var scheduler *service.Scheduler
	if cfg.Lottery.Scheduling.Enabled {
		scheduler = service.NewScheduler(app.Importer, cfg.Lottery.Scheduling, logger)
		if err := scheduler.Register(ctx); err != nil {
			logger.Fatalf("注册定时任务失败: %v", err)
		}
		scheduler.Start()
		logger.WithField("jobs", scheduler.Entries()).Info("定时导入已启动")
	}

	// 6. 注册API路由
	router := api.NewRouter(cfg.Server.Mode, api.Handlers{
		Sync:    api.NewSyncHandler(app.Importer, logger),
		Contest: api.NewContestHandler(app.Results, logger),
		Game:    api.NewGameHandler(app.Generator, logger),
	})
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 7. 启动服务（从配置读取端口）
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("收到退出信号，开始关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP服务关闭超时")
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("定时任务未在超时前结束")
		}
	}
	wg.Wait()
	logger.Info("服务已退出")
}
