package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sehaty-app/sehaty/internal/app"
	"github.com/sehaty-app/sehaty/internal/auth"
	jobmetrics "github.com/sehaty-app/sehaty/internal/jobs"
	"github.com/sehaty-app/sehaty/internal/notifications"
	"github.com/sehaty-app/sehaty/internal/platform/db"
	"github.com/sehaty-app/sehaty/jobs"
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

	metrics := jobmetrics.NewMetrics(nil)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens, noopMailer{}, nil, logger, cfg.AuthCodeTTL)
	notificationsService := notifications.NewService(notifications.NewRepository(pool), logger)

	mailJob := jobs.NewMailJob(jobs.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		From: cfg.SMTPFrom,
	}, logger, metrics)
	cleanupJob := jobs.NewAuthCleanupJob(authService, logger, metrics)
	fanoutJob := jobs.NewNotifyFanoutJob(notificationsService, logger, metrics)
	pruneJob := jobs.NewNotificationPruneJob(notificationsService, logger, metrics)

	pruneTask, err := jobs.NewNotificationPruneTask(cfg.NotificationRetentionDays)
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypeNotifyFanout, Handler: fanoutJob.Handle},
			{Type: jobs.TaskTypeAuthCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskTypeNotificationPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewAuthCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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

// noopMailer satisfies the auth service's mailer dependency. The worker
// never signs users up, so nothing is ever sent through it.
type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string) error { return nil }
