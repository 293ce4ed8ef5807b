package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

type fakeRepo struct {
	nextID int64
	rows   map[int64]*Service
	rates  map[int64]map[int64]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]*Service), rates: make(map[int64]map[int64]int)}
}

func (f *fakeRepo) Create(ctx context.Context, s *Service) (int64, error) {
	f.nextID++
	copied := *s
	copied.ID = f.nextID
	copied.CreatedAt = time.Now()
	f.rows[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, s *Service) error {
	existing, ok := f.rows[s.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	providerID := existing.ProviderID
	*existing = *s
	existing.ProviderID = providerID
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*Service, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Service, int64, error) {
	var out []Service
	for id := int64(1); id <= f.nextID; id++ {
		if s, ok := f.rows[id]; ok {
			if filter.CategoryID > 0 && s.CategoryID != filter.CategoryID {
				continue
			}
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) UpsertRate(ctx context.Context, rate Rate) error {
	if _, ok := f.rows[rate.ServiceID]; !ok {
		return httpx.ErrNotFound
	}
	if f.rates[rate.ServiceID] == nil {
		f.rates[rate.ServiceID] = make(map[int64]int)
	}
	f.rates[rate.ServiceID][rate.UserID] = rate.Score
	return nil
}

func (f *fakeRepo) RateSummary(ctx context.Context, serviceID int64) (float64, int, error) {
	scores := f.rates[serviceID]
	if len(scores) == 0 {
		return 0, 0, nil
	}
	var sum int
	for _, score := range scores {
		sum += score
	}
	return float64(sum) / float64(len(scores)), len(scores), nil
}

type fakeProviders struct {
	byUser map[int64]int64
}

func (f *fakeProviders) ProviderIDForUser(ctx context.Context, userID int64) (int64, error) {
	id, ok := f.byUser[userID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return id, nil
}

func newTestManager() (*Manager, *fakeRepo) {
	repo := newFakeRepo()
	providers := &fakeProviders{byUser: map[int64]int64{5: 1, 6: 2}}
	return NewManager(repo, providers, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func sample() *Service {
	return &Service{
		CategoryID:      1,
		TitleAR:         "استشارة عامة",
		TitleEN:         "General consultation",
		Price:           120,
		DurationMinutes: 30,
	}
}

func TestCreateAttachesActingProvider(t *testing.T) {
	mgr, _ := newTestManager()

	s, err := mgr.Create(context.Background(), 5, sample())
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ProviderID)
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	mgr, _ := newTestManager()

	s, err := mgr.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	edited := *s
	edited.Price = 90
	other := shared.Identity{UserID: 6, Role: shared.RoleServiceProvider, Authenticated: true}
	_, err = mgr.Update(context.Background(), other, &edited)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestRateAggregates(t *testing.T) {
	mgr, _ := newTestManager()

	s, err := mgr.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	avg, count, err := mgr.Rate(context.Background(), 20, s.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, count)

	_, _, err = mgr.Rate(context.Background(), 20, s.ID, 7)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTitleLocalization(t *testing.T) {
	s := sample()
	assert.Equal(t, "استشارة عامة", s.Title().Pick(i18n.LangArabic))
	assert.Equal(t, "General consultation", s.Title().Pick("fr"))
}
