package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tallybook/tallybook/internal/app"
	"github.com/tallybook/tallybook/internal/bank"
	"github.com/tallybook/tallybook/internal/loans"
	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	bankService := bank.NewService(bank.NewRepository(pool), logger)
	loanService := loans.NewService(loans.NewRepository(pool), logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBankReconcile, Handler: jobs.HandleReconcile(logger, jobs.TaskBankReconcile, bankService)},
			{Type: jobs.TaskLoanReconcile, Handler: jobs.HandleReconcile(logger, jobs.TaskLoanReconcile, loanService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 2 * * *", Task: jobs.NewBankReconcileTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewLoanReconcileTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
