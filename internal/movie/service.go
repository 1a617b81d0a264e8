package movie

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/cache"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie/repo"
)

// PlaceholderImageURL is used when a movie is saved without an image.
const PlaceholderImageURL = "https://placehold.co/600x400"

const listCacheKey = "movies:all"

var (
	ErrNotFound         = errors.New("movie not found")
	ErrExists           = errors.New("movie already exists")
	ErrInvalid          = errors.New("invalid movie")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository interface {
	List(ctx context.Context) ([]*entity.Movie, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Movie, error)
	SearchByName(ctx context.Context, term string) ([]*entity.Movie, error)
	GetByID(ctx context.Context, id int64) (*entity.Movie, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, m *entity.Movie) error
	Update(ctx context.Context, m *entity.Movie) error
	Delete(ctx context.Context, id int64) error
}

// CategoryChecker reports whether a category exists.
type CategoryChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type IDSource interface {
	Next() int64
}

// Input carries the writable fields of a movie.
type Input struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Duration       int    `json:"duration"`
	ImageURL       string `json:"imageUrl"`
	Classification string `json:"classification"`
	CategoryID     int64  `json:"categoryId,string"`
}

type Service struct {
	repo       Repository
	categories CategoryChecker
	ids        IDSource
	cache      cache.Cache
	logger     *zap.SugaredLogger
}

func NewService(r Repository, categories CategoryChecker, ids IDSource, c cache.Cache, logger *zap.SugaredLogger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{repo: r, categories: categories, ids: ids, cache: c, logger: logger}
}

// List returns every movie ordered by name.
func (s *Service) List(ctx context.Context) ([]*entity.Movie, error) {
	var cached []*entity.Movie
	if ok, err := s.cache.Get(ctx, listCacheKey, &cached); err != nil {
		s.logger.Warnw("movie cache read failed", "err", err)
	} else if ok {
		return cached, nil
	}
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listCacheKey, out); err != nil {
		s.logger.Warnw("movie cache write failed", "err", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Movie, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

// ListByCategory fails with ErrCategoryNotFound for unknown categories.
func (s *Service) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Movie, error) {
	if categoryID <= 0 {
		return nil, fmt.Errorf("%w: category id must be positive", ErrInvalid)
	}
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repo.ListByCategory(ctx, categoryID)
}

// Search finds movies whose name contains term, ignoring case.
func (s *Service) Search(ctx context.Context, term string) ([]*entity.Movie, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalid)
	}
	return s.repo.SearchByName(ctx, term)
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.Movie, error) {
	m := &entity.Movie{ID: s.ids.Next(), CreatedAt: time.Now().UTC()}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)
	s.logger.Infow("movie created", "id", m.ID, "name", m.Name)
	return m, nil
}

// Update replaces the writable fields of an existing movie.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Movie, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(ctx)
	s.logger.Infow("movie deleted", "id", id)
	return nil
}

// apply validates in and copies it onto m.
func (s *Service) apply(ctx context.Context, m *entity.Movie, in Input) error {
	name := strings.TrimSpace(in.Name)
	class := entity.Classification(strings.TrimSpace(in.Classification))
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case in.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	case !class.Valid():
		return fmt.Errorf("%w: classification must be one of 7, 13, 16, 18", ErrInvalid)
	case in.CategoryID <= 0:
		return fmt.Errorf("%w: category id is required", ErrInvalid)
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return err
	}
	taken, err := s.repo.NameTaken(ctx, name, m.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrExists
	}

	m.Name = name
	m.Description = strings.TrimSpace(in.Description)
	m.DurationMinutes = in.Duration
	m.Classification = class
	m.CategoryID = in.CategoryID
	m.ImageURL = strings.TrimSpace(in.ImageURL)
	if m.ImageURL == "" {
		m.ImageURL = PlaceholderImageURL
	}
	return nil
}

func (s *Service) requireCategory(ctx context.Context, id int64) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		s.logger.Warnw("movie cache invalidation failed", "err", err)
	}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrConflict):
		return ErrExists
	case errors.Is(err, repo.ErrCategory):
		return ErrCategoryNotFound
	default:
		return err
	}
}
