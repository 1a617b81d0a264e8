package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samber/oops"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/dbx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role/entity"
)

// ErrNotFound is returned when no role has the requested name.
var ErrNotFound = errors.New("role not found")

// RoleRepo provides data access for roles and user_roles.
type RoleRepo struct {
	db dbx.DBTX
}

func NewRoleRepo(db dbx.DBTX) *RoleRepo { return &RoleRepo{db: db} }

// Insert creates the role unless a role with that name exists.
func (r *RoleRepo) Insert(ctx context.Context, id, name string) error {
	const q = `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, id, name); err != nil {
		return oops.Code("ROLE_INSERT_FAILED").With("role", name).Wrap(err)
	}
	return nil
}

// GetByName returns the role or ErrNotFound.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	const q = `SELECT id, name, created_at FROM roles WHERE name = $1`
	var row entity.Role
	if err := r.db.GetContext(ctx, &row, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("ROLE_NOT_FOUND").With("role", name).Wrap(ErrNotFound)
		}
		return nil, oops.Code("ROLE_GET_FAILED").With("role", name).Wrap(err)
	}
	return &row, nil
}

// Assign links a user to a role; assigning twice is a no-op.
func (r *RoleRepo) Assign(ctx context.Context, userID, roleID string) error {
	const q = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, userID, roleID); err != nil {
		return oops.Code("ROLE_ASSIGN_FAILED").With("user_id", userID).With("role_id", roleID).Wrap(err)
	}
	return nil
}

// NamesByUser returns the user's role names ordered by name.
func (r *RoleRepo) NamesByUser(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, q, userID); err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return names, nil
}
