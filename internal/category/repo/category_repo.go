package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/dbx"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/database"
)

var (
	ErrNotFound = errors.New("category not found")
	ErrConflict = errors.New("category name already exists")
	ErrInUse    = errors.New("category is referenced by movies")
)

// Repo is the categories repository backed by PostgreSQL.
type Repo struct {
	db dbx.DBTX
}

func NewRepo(db dbx.DBTX) *Repo {
	return &Repo{db: db}
}

// List returns all categories ordered by name.
func (r *Repo) List(ctx context.Context) ([]*entity.Category, error) {
	const q = `SELECT id, name, created_at FROM categories ORDER BY name`
	out := []*entity.Category{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, oops.Code("CATEGORY_LIST_FAILED").Wrap(err)
	}
	return out, nil
}

// GetByID returns ErrNotFound when the id is unknown.
func (r *Repo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	const q = `SELECT id, name, created_at FROM categories WHERE id = $1`
	var c entity.Category
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("CATEGORY_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
		}
		return nil, oops.Code("CATEGORY_GET_FAILED").With("id", id).Wrap(err)
	}
	return &c, nil
}

// NameTaken reports whether another category (id != excludeID) already
// uses name, ignoring case.
func (r *Repo) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, name, excludeID); err != nil {
		return false, oops.Code("CATEGORY_EXISTS_FAILED").With("name", name).Wrap(err)
	}
	return ok, nil
}

func (r *Repo) Create(ctx context.Context, c *entity.Category) error {
	const q = `INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, q, c.ID, c.Name, c.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return oops.Code("CATEGORY_CONFLICT").With("name", c.Name).Wrap(ErrConflict)
		}
		return oops.Code("CATEGORY_CREATE_FAILED").With("name", c.Name).Wrap(err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, c *entity.Category) error {
	const q = `UPDATE categories SET name = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return oops.Code("CATEGORY_CONFLICT").With("name", c.Name).Wrap(ErrConflict)
		}
		return oops.Code("CATEGORY_UPDATE_FAILED").With("id", c.ID).Wrap(err)
	}
	return requireOneRow(res, c.ID)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM categories WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return oops.Code("CATEGORY_IN_USE").With("id", id).Wrap(ErrInUse)
		}
		return oops.Code("CATEGORY_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("CATEGORY_ROWS_FAILED").With("id", id).Wrap(err)
	}
	if n == 0 {
		return oops.Code("CATEGORY_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}
