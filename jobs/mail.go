package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sehaty-app/sehaty/internal/jobs"
)

// QueueMailer satisfies the auth service's Mailer dependency by
// enqueueing a send-email task instead of blocking the request on SMTP.
type QueueMailer struct {
	client *Client
	logger *slog.Logger
}

// NewQueueMailer constructs a QueueMailer.
func NewQueueMailer(client *Client, logger *slog.Logger) *QueueMailer {
	return &QueueMailer{client: client, logger: logger}
}

// Send enqueues the email for the worker to deliver.
func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	info, err := m.client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	m.logger.Debug("mail queued", slog.String("task_id", info.ID), slog.String("to", to))
	return nil
}

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// MailJob delivers queued emails over SMTP. Runs inside the worker.
type MailJob struct {
	cfg     SMTPConfig
	logger  *slog.Logger
	metrics *jobmetrics.Metrics

	// send is swappable in tests.
	send func(addr, from string, to []string, msg []byte) error
}

// NewMailJob constructs a MailJob.
func NewMailJob(cfg SMTPConfig, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("mail_send")

	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		err := fmt.Errorf("mail task without recipient: %w", asynq.SkipRetry)
		return tracker.End(err)
	}

	addr := fmt.Sprintf("%s:%d", j.cfg.Host, j.cfg.Port)
	msg := []byte("From: " + j.cfg.From + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		payload.Body + "\r\n")

	if err := j.send(addr, j.cfg.From, []string{payload.To}, msg); err != nil {
		j.logger.Warn("smtp send", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(fmt.Errorf("smtp send: %w", err))
	}

	j.metrics.MailDelivered()
	j.logger.Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}
