package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/sehaty-app/sehaty/internal/jobs"
)

func testMailJob(t *testing.T, send func(addr, from string, to []string, msg []byte) error) *MailJob {
	t.Helper()
	job := NewMailJob(
		SMTPConfig{Host: "127.0.0.1", Port: 1025, From: "no-reply@sehaty.local"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobmetrics.NewMetrics(prometheus.NewRegistry()),
	)
	job.send = send
	return job
}

func emailTask(t *testing.T, payload SendEmailPayload) *asynq.Task {
	t.Helper()
	task, err := NewSendEmailTask(payload)
	require.NoError(t, err)
	return task
}

func TestMailJobDelivers(t *testing.T) {
	var gotTo []string
	var gotMsg []byte
	job := testMailJob(t, func(addr, from string, to []string, msg []byte) error {
		assert.Equal(t, "127.0.0.1:1025", addr)
		assert.Equal(t, "no-reply@sehaty.local", from)
		gotTo = to
		gotMsg = msg
		return nil
	})

	task := emailTask(t, SendEmailPayload{To: "user@example.com", Subject: "Welcome", Body: "مرحبا"})
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Welcome")
	assert.Contains(t, string(gotMsg), "مرحبا")
	assert.Contains(t, string(gotMsg), "charset=utf-8")
}

func TestMailJobRetriesOnSMTPFailure(t *testing.T) {
	job := testMailJob(t, func(addr, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	})

	task := emailTask(t, SendEmailPayload{To: "user@example.com", Subject: "Hi", Body: "hi"})
	err := job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "transient SMTP failures must be retried")
}

func TestMailJobSkipsBadPayload(t *testing.T) {
	job := testMailJob(t, func(addr, from string, to []string, msg []byte) error {
		t.Fatal("send must not be called")
		return nil
	})

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	missing, jerr := json.Marshal(SendEmailPayload{Subject: "no recipient"})
	require.NoError(t, jerr)
	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, missing))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
