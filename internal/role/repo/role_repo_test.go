package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*RoleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoleRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+roles\s*\(id,\s*name\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(name\)\s*DO\s+NOTHING$`).
		WithArgs("r1", "Admin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), "r1", "Admin"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+roles`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), "r1", "Admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetByName(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,\s*created_at\s+FROM\s+roles\s+WHERE\s+name\s*=\s*\$1$`).
		WithArgs("Admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("r1", "Admin", now))

	got, err := repo.GetByName(context.Background(), "Admin")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "Admin", got.Name)
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+roles`).WithArgs("Ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "Ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAssign(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+user_roles\s*\(user_id,\s*role_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s+DO\s+NOTHING$`).
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Assign(context.Background(), "u1", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNamesByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^SELECT\s+r\.name\s+FROM\s+roles\s+r.*WHERE\s+ur\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+r\.name$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Admin").AddRow("Registered"))

	got, err := repo.NamesByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "Registered"}, got)
}

func TestNamesByUser_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+roles`).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	got, err := repo.NamesByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
