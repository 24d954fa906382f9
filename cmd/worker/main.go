package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/orderdesk/orderdesk/internal/app"
	"github.com/orderdesk/orderdesk/internal/platform/cache"
	"github.com/orderdesk/orderdesk/internal/platform/db"
	"github.com/orderdesk/orderdesk/internal/replenish"
	"github.com/orderdesk/orderdesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	replenishService := replenish.NewService(
		replenish.NewRepository(pool),
		replenish.NewCache(redisClient, cfg.LowStockCacheTTL),
	)

	lowStockJob := jobs.NewLowStockScanJob(replenishService, logger)
	backupJob := jobs.NewDatabaseBackupJob(cfg.PGDSN, cfg.BackupDir, cfg.BackupKeep, logger)
	priceJob := jobs.NewPriceNormalizeJob(pool, logger)

	lowStockTask, err := jobs.NewLowStockScanTask(true)
	if err != nil {
		logger.Error("build lowstock task", slog.Any("error", err))
		os.Exit(1)
	}
	backupTask, err := jobs.NewDatabaseBackupTask(0)
	if err != nil {
		logger.Error("build backup task", slog.Any("error", err))
		os.Exit(1)
	}
	priceTask, err := jobs.NewPriceNormalizeTask(false)
	if err != nil {
		logger.Error("build price task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskDatabaseBackup, Handler: backupJob.Handle},
			{Type: jobs.TaskPriceNormalize, Handler: priceJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: backupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "30 3 * * 0", Task: priceTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
