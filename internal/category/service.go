package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/repo"
)

const (
	maxNameLength = 100
	listCacheKey  = "categories:all"
)

// sentinel errors for common failure modes
var (
	ErrNotFound = errors.New("category not found")
	ErrExists   = errors.New("category already exists")
	ErrInvalid  = errors.New("invalid category")
	ErrInUse    = errors.New("category has movies")
)

type Repository interface {
	List(ctx context.Context) ([]*entity.Category, error)
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, c *entity.Category) error
	Update(ctx context.Context, c *entity.Category) error
	Delete(ctx context.Context, id int64) error
}

// IDSource hands out new record ids.
type IDSource interface {
	Next() int64
}

// Service encapsulates business logic for categories.
type Service struct {
	repo   Repository
	ids    IDSource
	cache  cache.Cache
	logger *zap.SugaredLogger
}

func NewService(r Repository, ids IDSource, c cache.Cache, logger *zap.SugaredLogger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{repo: r, ids: ids, cache: c, logger: logger}
}

// List returns all categories ordered by name, served from cache when possible.
func (s *Service) List(ctx context.Context) ([]*entity.Category, error) {
	var cached []*entity.Category
	if ok, err := s.cache.Get(ctx, listCacheKey, &cached); err != nil {
		s.logger.Warnw("category cache read failed", "err", err)
	} else if ok {
		return cached, nil
	}

	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listCacheKey, out); err != nil {
		s.logger.Warnw("category cache write failed", "err", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// Exists reports whether a category with id exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) Create(ctx context.Context, name string) (*entity.Category, error) {
	name, err := s.checkName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	c := &entity.Category{ID: s.ids.Next(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)
	s.logger.Infow("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

// Rename changes the name of an existing category.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*entity.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Name, err = s.checkName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(ctx)
	s.logger.Infow("category deleted", "id", id)
	return nil
}

func (s *Service) checkName(ctx context.Context, name string, excludeID int64) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	case utf8.RuneCountInString(name) > maxNameLength:
		return "", fmt.Errorf("%w: name must be at most %d characters", ErrInvalid, maxNameLength)
	}
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrExists
	}
	return name, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		s.logger.Warnw("category cache invalidation failed", "err", err)
	}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrConflict):
		return ErrExists
	case errors.Is(err, repo.ErrInUse):
		return ErrInUse
	default:
		return err
	}
}
