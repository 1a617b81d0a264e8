package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/dbx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/database"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("username already exists")
)

const userColumns = `id, username, email, display_name, password_hash, created_at, updated_at`

// UserRepo provides data access for the users table using sqlx. Username
// lookups are case-insensitive and backed by a unique index on LOWER(username).
type UserRepo struct {
	db dbx.DBTX
}

func NewUserRepo(db dbx.DBTX) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user. A username clash returns ErrConflict and leaves
// the existing row untouched.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, display_name, password_hash, created_at, updated_at)
		VALUES (:id, :username, :email, :display_name, :password_hash, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, q, u); err != nil {
		if database.IsUniqueViolation(err) {
			return oops.Code("USER_CONFLICT").With("username", u.Username).Wrap(ErrConflict)
		}
		return oops.Code("USER_CREATE_FAILED").With("username", u.Username).Wrap(err)
	}
	return nil
}

// FindByUsername matches case-insensitively.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	return r.getOne(ctx, q, "username", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, "id", id)
}

func (r *UserRepo) getOne(ctx context.Context, q, key, value string) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("USER_NOT_FOUND").With(key, value).Wrap(ErrNotFound)
		}
		return nil, oops.Code("USER_GET_FAILED").With(key, value).Wrap(err)
	}
	return &row, nil
}

// Exists reports whether a username is taken, ignoring case.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, q, username); err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").With("username", username).Wrap(err)
	}
	return ok, nil
}

// ListAll returns every user ordered by username, ignoring case.
func (r *UserRepo) ListAll(ctx context.Context) ([]*entity.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY LOWER(username), username`
	rows := []*entity.User{}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").Wrap(err)
	}
	return rows, nil
}

// UpdatePasswordHash replaces the stored hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	if n == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}
