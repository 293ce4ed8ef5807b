package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

type fakeRecorder struct {
	users    []int64
	last     i18n.Localized
	failWith error
}

func (f *fakeRecorder) Notify(_ context.Context, userID int64, content i18n.Localized) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.users = append(f.users, userID)
	f.last = content
	return nil
}

func TestNotifyFanoutRecordsNotification(t *testing.T) {
	recorder := &fakeRecorder{}
	job := NewNotifyFanoutJob(recorder, slog.New(slog.NewTextHandler(io.Discard, nil)), testMetrics())

	task, err := NewNotifyFanoutTask(NotifyFanoutPayload{
		UserID:    7,
		ContentAR: "تم قبول طلبك",
		ContentEN: "Your order was accepted",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int64{7}, recorder.users)
	assert.Equal(t, "تم قبول طلبك", recorder.last.AR)
	assert.Equal(t, "Your order was accepted", recorder.last.EN)
}

func TestNotifyFanoutSkipsBadPayload(t *testing.T) {
	recorder := &fakeRecorder{}
	job := NewNotifyFanoutJob(recorder, slog.New(slog.NewTextHandler(io.Discard, nil)), testMetrics())

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeNotifyFanout, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, recorder.users)
}

func TestNotifyFanoutDropsInvalidContent(t *testing.T) {
	recorder := &fakeRecorder{failWith: fmt.Errorf("%w: both translations are required", httpx.ErrValidation)}
	job := NewNotifyFanoutJob(recorder, slog.New(slog.NewTextHandler(io.Discard, nil)), testMetrics())

	task, err := NewNotifyFanoutTask(NotifyFanoutPayload{UserID: 7})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNotifyFanoutRetriesOnStorageError(t *testing.T) {
	recorder := &fakeRecorder{failWith: errors.New("db down")}
	job := NewNotifyFanoutJob(recorder, slog.New(slog.NewTextHandler(io.Discard, nil)), testMetrics())

	task, err := NewNotifyFanoutTask(NotifyFanoutPayload{
		UserID: 7, ContentAR: "مرحبا", ContentEN: "hello",
	})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
