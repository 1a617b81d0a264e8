// Package store binds repositories to a database handle and runs units of
// work inside one transaction.
package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/dbx"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/role"
	rolerepo "github.com/ovaphlow/pitchfork/service-movies-go/internal/role/repo"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-movies-go/internal/user/repo"
)

// Manager vends PostgreSQL-backed repositories.
type Manager struct {
	db   *sqlx.DB
	conn dbx.DBTX
}

var _ user.Store = (*Manager)(nil)

// NewManager returns a Manager bound to the connection pool.
func NewManager(db *sqlx.DB) *Manager {
	return &Manager{db: db, conn: db}
}

func (m *Manager) Users() user.CredentialStore {
	return userrepo.NewUserRepo(m.conn)
}

func (m *Manager) Roles() user.RoleResolver {
	return role.NewResolver(rolerepo.NewRoleRepo(m.conn))
}

// InTx runs fn with a Manager bound to a fresh transaction. Nested calls
// reuse the outer transaction.
func (m *Manager) InTx(ctx context.Context, fn func(ctx context.Context, tx user.Store) error) error {
	if m.db == nil {
		return fn(ctx, m)
	}
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &Manager{conn: tx})
	})
}
