package contact

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

type fakeRepo struct {
	nextID int64
	items  map[int64]*Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, items: map[int64]*Message{}}
}

func (f *fakeRepo) Create(_ context.Context, m *Message) (int64, error) {
	id := f.nextID
	f.nextID++
	clone := *m
	clone.ID = id
	clone.CreatedAt = time.Now()
	f.items[id] = &clone
	return id, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Message, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeRepo) List(_ context.Context, unreadOnly bool, limit, offset int) ([]Message, int64, error) {
	var out []Message
	for _, m := range f.items {
		if unreadOnly && m.ReadBy != 0 {
			continue
		}
		out = append(out, *m)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeRepo) MarkRead(_ context.Context, id, staffID int64) error {
	m, ok := f.items[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if m.ReadBy != 0 {
		return httpx.ErrConflict
	}
	m.ReadBy = staffID
	return nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestSubmitTrimsAndStores(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Submit(context.Background(), 50, "  billing question  ", " charged twice ")
	require.NoError(t, err)
	assert.Equal(t, "billing question", m.Subject)
	assert.Equal(t, "charged twice", m.Body)
	assert.Zero(t, m.ReadBy)
}

func TestSubmitRequiresSubjectAndBody(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Submit(context.Background(), 50, "   ", "body")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Submit(context.Background(), 50, "subject", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMarkReadClaimsOnce(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Submit(context.Background(), 50, "subject", "body")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), 2, m.ID))

	err = svc.MarkRead(context.Background(), 3, m.ID)
	assert.ErrorIs(t, err, httpx.ErrConflict, "second admin cannot claim a handled ticket")

	got, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ReadBy)
}

func TestListUnreadOnly(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Submit(context.Background(), 50, "one", "body")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), 51, "two", "body")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), 2, first.ID))

	unread, pagination, err := svc.List(context.Background(), true, 1, 20)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "two", unread[0].Subject)
	assert.Equal(t, 1, pagination.Total)

	all, pagination, err := svc.List(context.Background(), false, 1, 20)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, pagination.Total)
}
