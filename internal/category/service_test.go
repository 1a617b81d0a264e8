package category

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/repo"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Next() int64 { return s.n.Add(1) }

// memRepo is an in-memory Repository.
type memRepo struct {
	items   map[int64]*entity.Category
	lists   int
	failAll error
}

func newMemRepo() *memRepo { return &memRepo{items: map[int64]*entity.Category{}} }

func (m *memRepo) List(context.Context) ([]*entity.Category, error) {
	m.lists++
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := []*entity.Category{}
	for _, c := range m.items {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *entity.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, c := range m.items {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, c *entity.Category) error {
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, c *entity.Category) error {
	if _, ok := m.items[c.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// mapCache is a trivial cache.Cache storing values by reference.
type mapCache struct{ data map[string][]*entity.Category }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.data[key]
	if ok {
		*(dst.(*[]*entity.Category)) = v
	}
	return ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v any) error {
	c.data[key] = v.([]*entity.Category)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestService() (*Service, *memRepo, *mapCache) {
	r := newMemRepo()
	c := &mapCache{data: map[string][]*entity.Category{}}
	return NewService(r, &seqIDs{}, c, zap.NewNop().Sugar()), r, c
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	svc, r, _ := newTestService()

	_, err := svc.Create(ctx, "Drama")
	require.NoError(t, err)
	_, err = svc.Create(ctx, " Action ")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Action", list[0].Name)
	assert.Equal(t, "Drama", list[1].Name)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.lists, "second list must come from cache")

	_, err = svc.Create(ctx, "Comedy")
	require.NoError(t, err)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3, "writes invalidate the cached list")
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Create(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = svc.Create(ctx, strings.Repeat("x", 101))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Create(ctx, "Drama")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "DRAMA")
	require.ErrorIs(t, err, ErrExists)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	drama, err := svc.Create(ctx, "Drama")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Action")
	require.NoError(t, err)

	got, err := svc.Rename(ctx, drama.ID, "drama")
	require.NoError(t, err, "renaming to a case variant of its own name is allowed")
	assert.Equal(t, "drama", got.Name)

	_, err = svc.Rename(ctx, drama.ID, "Action")
	require.ErrorIs(t, err, ErrExists)
	_, err = svc.Rename(ctx, 999, "Other")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	c, err := svc.Create(ctx, "Drama")
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, c.ID))
	require.ErrorIs(t, svc.Delete(ctx, c.ID), ErrNotFound)

	ok, err = svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListError(t *testing.T) {
	svc, r, _ := newTestService()
	r.failAll = errors.New("db down")
	_, err := svc.List(context.Background())
	require.Error(t, err)
}
