package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/category/entity"
)

func newRepoWithMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(sqlx.NewDb(db, "pgx")), mock
}

func TestList(t *testing.T) {
	r, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,\s*created_at\s+FROM\s+categories\s+ORDER\s+BY\s+name$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow(int64(2), "Action", now).
			AddRow(int64(1), "Drama", now))

	got, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Action", got[0].Name)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestGetByID_NotFound(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+categories\s+WHERE\s+id`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := r.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNameTaken(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+categories\s+WHERE\s+LOWER\(name\)\s*=\s*LOWER\(\$1\)\s+AND\s+id\s*<>\s*\$2\)$`).
		WithArgs("drama", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := r.NameTaken(context.Background(), "drama", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestCreate(t *testing.T) {
	r, mock := newRepoWithMock(t)
	c := &entity.Category{ID: 7, Name: "Drama", CreatedAt: time.Now()}
	q := `(?s)^INSERT\s+INTO\s+categories\s*\(id,\s*name,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)$`
	mock.ExpectExec(q).WithArgs(c.ID, c.Name, c.CreatedAt).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505"})

	require.NoError(t, r.Create(context.Background(), c))
	require.ErrorIs(t, r.Create(context.Background(), c), ErrConflict)
}

func TestUpdate(t *testing.T) {
	r, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+categories\s+SET\s+name\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("Comedy", int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("Comedy", int64(8)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Update(context.Background(), &entity.Category{ID: 7, Name: "Comedy"}))
	require.ErrorIs(t, r.Update(context.Background(), &entity.Category{ID: 8, Name: "Comedy"}), ErrNotFound)
}

func TestDelete(t *testing.T) {
	r, mock := newRepoWithMock(t)
	q := `(?s)^DELETE\s+FROM\s+categories\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(8)).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectExec(q).WithArgs(int64(9)).WillReturnError(errors.New("db down"))

	require.NoError(t, r.Delete(context.Background(), 7))
	require.ErrorIs(t, r.Delete(context.Background(), 8), ErrInUse)
	err := r.Delete(context.Background(), 9)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
