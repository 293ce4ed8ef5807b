package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeNotifyFanout writes a bilingual notification row.
	TaskTypeNotifyFanout = "notify:fanout"
	// TaskTypeAuthCleanup purges expired confirmation and reset codes.
	TaskTypeAuthCleanup = "auth:cleanup"
	// TaskTypeNotificationPrune removes read notifications past retention.
	TaskTypeNotificationPrune = "notifications:prune"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NotifyFanoutPayload carries one notification for one recipient.
type NotifyFanoutPayload struct {
	UserID    int64  `json:"user_id"`
	ContentAR string `json:"content_ar"`
	ContentEN string `json:"content_en"`
}

// NewNotifyFanoutTask constructs a notification fan-out task.
func NewNotifyFanoutTask(payload NotifyFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyFanout, data), nil
}

// NewAuthCleanupTask constructs the periodic code-purge task.
func NewAuthCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuthCleanup, nil)
}

// NotificationPrunePayload carries the retention window in days.
type NotificationPrunePayload struct {
	OlderThanDays int `json:"older_than_days"`
}

// NewNotificationPruneTask constructs the periodic notification-prune task.
func NewNotificationPruneTask(olderThanDays int) (*asynq.Task, error) {
	data, err := json.Marshal(NotificationPrunePayload{OlderThanDays: olderThanDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotificationPrune, data), nil
}
