package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/dbx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/movie/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/database"
)

var (
	ErrNotFound = errors.New("movie not found")
	ErrConflict = errors.New("movie name already exists")
	ErrCategory = errors.New("category does not exist")
)

const movieColumns = `id, name, description, duration_minutes, image_url, classification, category_id, created_at`

// MovieRepo provides data access for the movies table using sqlx.
type MovieRepo struct {
	db dbx.DBTX
}

func NewMovieRepo(db dbx.DBTX) *MovieRepo {
	return &MovieRepo{db: db}
}

func (r *MovieRepo) List(ctx context.Context) ([]*entity.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies ORDER BY name`
	return r.selectMany(ctx, "MOVIE_LIST_FAILED", q)
}

// ListByCategory returns the category's movies ordered by name.
func (r *MovieRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE category_id = $1 ORDER BY name`
	return r.selectMany(ctx, "MOVIE_LIST_FAILED", q, categoryID)
}

// SearchByName matches names containing term, ignoring case. LIKE
// wildcards in term are matched literally.
func (r *MovieRepo) SearchByName(ctx context.Context, term string) ([]*entity.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE name ILIKE $1 ORDER BY name`
	return r.selectMany(ctx, "MOVIE_SEARCH_FAILED", q, "%"+escapeLike(term)+"%")
}

func (r *MovieRepo) selectMany(ctx context.Context, code, q string, args ...any) ([]*entity.Movie, error) {
	out := []*entity.Movie{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, oops.Code(code).Wrap(err)
	}
	return out, nil
}

func (r *MovieRepo) GetByID(ctx context.Context, id int64) (*entity.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`
	var m entity.Movie
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("MOVIE_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
		}
		return nil, oops.Code("MOVIE_GET_FAILED").With("id", id).Wrap(err)
	}
	return &m, nil
}

// NameTaken reports whether another movie (id != excludeID) uses name.
func (r *MovieRepo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM movies WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, name, excludeID); err != nil {
		return false, oops.Code("MOVIE_EXISTS_FAILED").With("name", name).Wrap(err)
	}
	return ok, nil
}

func (r *MovieRepo) Create(ctx context.Context, m *entity.Movie) error {
	const q = `INSERT INTO movies (` + movieColumns + `)
		VALUES (:id, :name, :description, :duration_minutes, :image_url, :classification, :category_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, m); err != nil {
		return writeErr("MOVIE_CREATE_FAILED", m, err)
	}
	return nil
}

func (r *MovieRepo) Update(ctx context.Context, m *entity.Movie) error {
	const q = `UPDATE movies SET name = :name, description = :description, duration_minutes = :duration_minutes,
		image_url = :image_url, classification = :classification, category_id = :category_id
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.db, q, m)
	if err != nil {
		return writeErr("MOVIE_UPDATE_FAILED", m, err)
	}
	return requireOneRow(res, m.ID)
}

func (r *MovieRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM movies WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return oops.Code("MOVIE_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return requireOneRow(res, id)
}

func writeErr(code string, m *entity.Movie, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return oops.Code("MOVIE_CONFLICT").With("name", m.Name).Wrap(ErrConflict)
	case database.IsForeignKeyViolation(err):
		return oops.Code("MOVIE_CATEGORY_MISSING").With("category_id", m.CategoryID).Wrap(ErrCategory)
	default:
		return oops.Code(code).With("id", m.ID).Wrap(err)
	}
}

func requireOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("MOVIE_ROWS_FAILED").With("id", id).Wrap(err)
	}
	if n == 0 {
		return oops.Code("MOVIE_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
