package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sehaty-app/sehaty/internal/jobs"
)

// CodePurger removes expired verification codes and reports how many.
type CodePurger interface {
	PurgeExpiredCodes(ctx context.Context) (int64, error)
}

// NotificationPruner removes old read notifications.
type NotificationPruner interface {
	PruneOld(ctx context.Context, olderThanDays int) error
}

// AuthCleanupJob purges expired confirmation, reset and email-change
// codes on a schedule.
type AuthCleanupJob struct {
	purger  CodePurger
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewAuthCleanupJob constructs an AuthCleanupJob.
func NewAuthCleanupJob(purger CodePurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthCleanupJob {
	return &AuthCleanupJob{purger: purger, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeAuthCleanup tasks.
func (j *AuthCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track("auth_cleanup")
	purged, err := j.purger.PurgeExpiredCodes(ctx)
	if err != nil {
		j.logger.Warn("auth cleanup", slog.Any("error", err))
	} else if purged > 0 {
		j.logger.Info("expired codes purged", slog.Int64("purged", purged))
	}
	return tracker.End(err)
}

// NotificationPruneJob trims read notifications past the retention
// window.
type NotificationPruneJob struct {
	pruner  NotificationPruner
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewNotificationPruneJob constructs a NotificationPruneJob.
func NewNotificationPruneJob(pruner NotificationPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotificationPruneJob {
	return &NotificationPruneJob{pruner: pruner, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeNotificationPrune tasks.
func (j *NotificationPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("notification_prune")

	var payload NotificationPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return fmt.Errorf("decode prune payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.OlderThanDays <= 0 {
		payload.OlderThanDays = 90
	}

	err := j.pruner.PruneOld(ctx, payload.OlderThanDays)
	if err != nil {
		j.logger.Warn("notification prune", slog.Any("error", err))
	}
	return tracker.End(err)
}
