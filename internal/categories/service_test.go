package categories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty-app/sehaty/internal/i18n"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

type fakeRepo struct {
	nextID int64
	rows   map[int64]*Category
	loads  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]*Category)}
}

func (f *fakeRepo) Create(ctx context.Context, c *Category) (int64, error) {
	f.nextID++
	copied := *c
	copied.ID = f.nextID
	copied.CreatedAt = time.Now()
	f.rows[copied.ID] = &copied
	return copied.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, c *Category) error {
	existing, ok := f.rows[c.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	existing.ParentID, existing.TitleAR, existing.TitleEN = c.ParentID, c.TitleAR, c.TitleEN
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*Category, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]Category, error) {
	f.loads++
	var out []Category
	for id := int64(1); id <= f.nextID; id++ {
		if c, ok := f.rows[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newFakeRepo()
	svc := NewService(repo, NewCache(client, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo
}

func seedTaxonomy(t *testing.T, svc *Service) (rootID int64) {
	t.Helper()
	root, err := svc.Create(context.Background(), &Category{TitleAR: "عيادات", TitleEN: "Clinics"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &Category{ParentID: &root.ID, TitleAR: "أسنان", TitleEN: "Dental"})
	require.NoError(t, err)
	return root.ID
}

func TestTreeLocalizesPerLanguage(t *testing.T) {
	svc, _ := newTestService(t)
	seedTaxonomy(t, svc)

	arTree, err := svc.Tree(context.Background(), i18n.LangArabic)
	require.NoError(t, err)
	require.Len(t, arTree, 1)
	assert.Equal(t, "عيادات", arTree[0].Title)
	require.Len(t, arTree[0].Children, 1)
	assert.Equal(t, "أسنان", arTree[0].Children[0].Title)

	enTree, err := svc.Tree(context.Background(), i18n.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Clinics", enTree[0].Title)
}

func TestTreeServesFromCache(t *testing.T) {
	svc, repo := newTestService(t)
	seedTaxonomy(t, svc)
	loadsAfterSeed := repo.loads

	_, err := svc.Tree(context.Background(), i18n.LangEnglish)
	require.NoError(t, err)
	_, err = svc.Tree(context.Background(), i18n.LangEnglish)
	require.NoError(t, err)

	assert.Equal(t, loadsAfterSeed+1, repo.loads, "second read hits the cache")
}

func TestWritesInvalidateCachedTree(t *testing.T) {
	svc, _ := newTestService(t)
	rootID := seedTaxonomy(t, svc)

	tree, err := svc.Tree(context.Background(), i18n.LangEnglish)
	require.NoError(t, err)
	require.Len(t, tree[0].Children, 1)

	_, err = svc.Create(context.Background(), &Category{ParentID: &rootID, TitleAR: "جلدية", TitleEN: "Dermatology"})
	require.NoError(t, err)

	tree, err = svc.Tree(context.Background(), i18n.LangEnglish)
	require.NoError(t, err)
	assert.Len(t, tree[0].Children, 2, "new child visible after invalidation")
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc, _ := newTestService(t)

	missing := int64(99)
	_, err := svc.Create(context.Background(), &Category{ParentID: &missing, TitleAR: "x", TitleEN: "x"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	svc, _ := newTestService(t)
	rootID := seedTaxonomy(t, svc)

	_, err := svc.Update(context.Background(), &Category{ID: rootID, ParentID: &rootID, TitleAR: "x", TitleEN: "x"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
