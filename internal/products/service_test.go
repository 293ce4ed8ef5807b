package products

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
	"github.com/sehaty-app/sehaty/internal/shared"
)

type fakeRepo struct {
	nextID int64
	rows   map[int64]*Product
	rates  map[int64]map[int64]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]*Product), rates: make(map[int64]map[int64]int)}
}

func (f *fakeRepo) Create(ctx context.Context, p *Product) (int64, error) {
	f.nextID++
	copied := *p
	copied.ID = f.nextID
	copied.CreatedAt = time.Now()
	f.rows[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, p *Product) error {
	existing, ok := f.rows[p.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	providerID := existing.ProviderID
	*existing = *p
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

func (f *fakeRepo) Get(ctx context.Context, id int64) (*Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *p
	avg, count, _ := f.RateSummary(ctx, id)
	copied.AvgRating, copied.RatingCount = avg, count
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Product, int64, error) {
	var out []Product
	for id := int64(1); id <= f.nextID; id++ {
		p, ok := f.rows[id]
		if !ok {
			continue
		}
		if filter.ProviderID > 0 && p.ProviderID != filter.ProviderID {
			continue
		}
		if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(p.TitleEN, filter.Search) && !strings.Contains(p.TitleAR, filter.Search) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) AdjustStock(ctx context.Context, id int64, delta int) error {
	p, ok := f.rows[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return httpx.ErrConflict
	}
	p.Stock += delta
	return nil
}

func (f *fakeRepo) UpsertRate(ctx context.Context, rate Rate) error {
	if _, ok := f.rows[rate.ProductID]; !ok {
		return httpx.ErrNotFound
	}
	if f.rates[rate.ProductID] == nil {
		f.rates[rate.ProductID] = make(map[int64]int)
	}
	f.rates[rate.ProductID][rate.UserID] = rate.Score
	return nil
}

func (f *fakeRepo) RateSummary(ctx context.Context, productID int64) (float64, int, error) {
	scores := f.rates[productID]
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

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	providers := &fakeProviders{byUser: map[int64]int64{5: 1, 6: 2}}
	return NewService(repo, providers, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func provider(userID int64) shared.Identity {
	return shared.Identity{UserID: userID, Role: shared.RoleServiceProvider, Authenticated: true}
}

func staff() shared.Identity {
	return shared.Identity{UserID: 100, Role: shared.RoleAdmin, IsStaff: true, Authenticated: true}
}

func sample() *Product {
	return &Product{
		CategoryID: 1,
		TitleAR:    "فيتامين د",
		TitleEN:    "Vitamin D",
		Price:      50,
		Stock:      10,
	}
}

func TestCreateAttachesActingProvider(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ProviderID)
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	edited := *p
	edited.Price = 40
	_, err = svc.Update(context.Background(), provider(6), &edited)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	updated, err := svc.Update(context.Background(), provider(5), &edited)
	require.NoError(t, err)
	assert.Equal(t, 40.0, updated.Price)
}

func TestStaffMayEditAnyProduct(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	edited := *p
	edited.Stock = 0
	_, err = svc.Update(context.Background(), staff(), &edited)
	assert.NoError(t, err)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc, repo := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), provider(6), p.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), provider(5), p.ID))
	assert.Empty(t, repo.rows)
}

func TestRateUpsertsAndAggregates(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	avg, count, err := svc.Rate(context.Background(), 20, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, count)

	avg, count, err = svc.Rate(context.Background(), 21, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 2, count)

	// Re-rating replaces, never duplicates.
	avg, count, err = svc.Rate(context.Background(), 21, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 2, count)
}

func TestRateBoundsScore(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), 5, sample())
	require.NoError(t, err)

	_, _, err = svc.Rate(context.Background(), 20, p.ID, 6)
	assert.ErrorIs(t, err, httpx.ErrValidation)
	_, _, err = svc.Rate(context.Background(), 20, p.ID, 0)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestFinalPriceAppliesDiscount(t *testing.T) {
	p := Product{Price: 200, DiscountPct: 25}
	assert.Equal(t, 150.0, p.FinalPrice())
}
