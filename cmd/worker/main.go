package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/realty-erp/realty-erp/internal/analytics"
	"github.com/realty-erp/realty-erp/internal/app"
	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/platform/cache"
	"github.com/realty-erp/realty-erp/internal/platform/db"
	"github.com/realty-erp/realty-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.StoreDriver != app.StoreDriverPostgres {
		logger.Error("worker requires the postgres store", slog.String("store", cfg.StoreDriver))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
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

	analyticsCache := analytics.NewCache(redisClient, cfg.DashboardCacheTTL)
	analyticsService := analytics.NewService(ledger.NewPostgresStore(pool), analyticsCache, logger)
	warmupJob := jobs.NewDashboardWarmupJob(analyticsService, logger, nil)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{Trigger: "cron"})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	// Every committed reconciliation bumps the cache version; warm the new one.
	err = analyticsCache.Subscribe(ctx, func(version int64) {
		payload := jobs.DashboardWarmupPayload{Trigger: "bump", Version: version}
		if _, err := client.EnqueueDashboardWarmup(ctx, payload); err != nil {
			logger.Debug("enqueue dashboard warmup", slog.Int64("version", version), slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Warn("subscribe to cache bumps", slog.Any("error", err))
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask},
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
