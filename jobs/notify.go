package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sehaty-app/sehaty/internal/i18n"
	jobmetrics "github.com/sehaty-app/sehaty/internal/jobs"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// QueueNotifier satisfies the domain modules' Notifier dependency by
// enqueueing a fan-out task; the worker writes the notification row.
type QueueNotifier struct {
	client *Client
	logger *slog.Logger
}

// NewQueueNotifier constructs a QueueNotifier.
func NewQueueNotifier(client *Client, logger *slog.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

// Notify enqueues the notification for the worker to record.
func (n *QueueNotifier) Notify(ctx context.Context, userID int64, content i18n.Localized) error {
	info, err := n.client.EnqueueNotifyFanout(ctx, NotifyFanoutPayload{
		UserID:    userID,
		ContentAR: content.AR,
		ContentEN: content.EN,
	})
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	n.logger.Debug("notification queued", slog.String("task_id", info.ID), slog.Int64("user_id", userID))
	return nil
}

// Recorder persists one bilingual notification. The notifications
// service implements it.
type Recorder interface {
	Notify(ctx context.Context, userID int64, content i18n.Localized) error
}

// NotifyFanoutJob writes queued notifications. Runs inside the worker.
type NotifyFanoutJob struct {
	recorder Recorder
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewNotifyFanoutJob constructs a NotifyFanoutJob.
func NewNotifyFanoutJob(recorder Recorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyFanoutJob {
	return &NotifyFanoutJob{recorder: recorder, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeNotifyFanout tasks.
func (j *NotifyFanoutJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("notify_fanout")

	var payload NotifyFanoutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
	}

	content := i18n.Localized{AR: payload.ContentAR, EN: payload.ContentEN}
	if err := j.recorder.Notify(ctx, payload.UserID, content); err != nil {
		if errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) {
			// Retrying cannot fix a malformed payload or a deleted user.
			err = fmt.Errorf("drop notification for user %d: %v: %w", payload.UserID, err, asynq.SkipRetry)
			return tracker.End(err)
		}
		return tracker.End(fmt.Errorf("record notification: %w", err))
	}

	j.logger.Info("notification recorded", slog.Int64("user_id", payload.UserID))
	return tracker.End(nil)
}
