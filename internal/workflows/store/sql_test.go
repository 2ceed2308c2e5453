package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
)

func newMockStore(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLStore(db, dialect)
	require.NoError(t, err)
	return s, mock
}

var workflowColumns = []string{"id", "name", "description", "color", "steps", "created_at", "updated_at"}

func TestNewSQLStore_Validation(t *testing.T) {
	_, err := NewSQLStore(nil, SQLite)
	assert.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewSQLStore(db, Dialect("oracle"))
	assert.Error(t, err)
}

func TestDialect_Placeholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", Postgres.placeholders(3))
	assert.Equal(t, "?, ?, ?", MySQL.placeholders(3))
	assert.Equal(t, "?", SQLite.placeholder(1))
	assert.Equal(t, "sqlite3", SQLite.DriverName())

	d, err := ParseDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
}

func TestSQLStore_GetUsesDialectPlaceholder(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows WHERE id = $1").
		WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows(workflowColumns).
			AddRow("wf-1", "Daily", "", "#FF3B30", `[{"id":"s1","title":"Mail","url":"https://mail.example"}]`, "2024-03-10T08:30:00Z", "2024-03-10T08:30:00Z"))

	wf, err := s.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Daily", wf.Name)
	require.Len(t, wf.Steps, 1)
	assert.Equal(t, "https://mail.example", wf.Steps[0].URL)
	assert.Equal(t, testTime, wf.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetNotFound(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, tferrors.IsNotFound(err))
	assert.False(t, tferrors.IsStorage(err))
}

func TestSQLStore_GetAllQueryFailure(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows ORDER BY seq").
		WillReturnError(errors.New("connection refused"))

	_, err := s.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, tferrors.IsStorage(err))
	se, ok := tferrors.AsStorageError(err)
	require.True(t, ok)
	assert.Equal(t, "mysql", se.Backend)
	assert.Equal(t, "getAll", se.Op)
}

func TestSQLStore_GetAllCorruptSteps(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows ORDER BY seq").
		WillReturnRows(sqlmock.NewRows(workflowColumns).
			AddRow("wf-1", "Broken", "", "", `{not-an-array`, "", ""))

	_, err := s.GetAll(context.Background())
	require.Error(t, err)
	assert.True(t, tferrors.IsStorage(err))
}

func TestSQLStore_AddInsertsAtNextSequence(t *testing.T) {
	s, mock := newMockStore(t, Postgres)
	wf := makeTestWorkflow("wf-2", "Research")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM workflows WHERE id = $1").
		WithArgs("wf-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT COALESCE(MAX(seq), 0) FROM workflows").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))
	mock.ExpectExec("INSERT INTO workflows (id, seq, name, description, color, steps, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)").
		WithArgs("wf-2", int64(5), "Research", "", "", "[]", "2024-03-10T08:30:00Z", "2024-03-10T08:30:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Add(context.Background(), wf))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AddDuplicate(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM workflows WHERE id = ?").
		WithArgs("wf-3").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := s.Add(context.Background(), makeTestWorkflow("wf-3", "Dup"))
	require.Error(t, err)
	assert.True(t, tferrors.IsAlreadyExists(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AddInsertFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM workflows WHERE id = ?").
		WithArgs("wf-4").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT COALESCE(MAX(seq), 0) FROM workflows").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("INSERT INTO workflows (id, seq, name, description, color, steps, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Add(context.Background(), makeTestWorkflow("wf-4", "Full"))
	require.Error(t, err)
	assert.True(t, tferrors.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_UpdateMissing(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectExec("UPDATE workflows SET name = ?, description = ?, color = ?, steps = ?, created_at = ?, updated_at = ? WHERE id = ?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows WHERE id = ?").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	err := s.Update(context.Background(), makeTestWorkflow("ghost", "Ghost"))
	require.Error(t, err)
	assert.True(t, tferrors.IsNotFound(err))
	we, ok := tferrors.AsWorkflowError(err)
	require.True(t, ok)
	assert.Equal(t, "update", we.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_UpdateUnchangedRowOnMySQL(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectExec("UPDATE workflows SET name = ?, description = ?, color = ?, steps = ?, created_at = ?, updated_at = ? WHERE id = ?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, name, description, color, steps, created_at, updated_at FROM workflows WHERE id = ?").
		WithArgs("same").
		WillReturnRows(sqlmock.NewRows(workflowColumns).AddRow("same", "Same", "", "", "[]", "", ""))

	assert.NoError(t, s.Update(context.Background(), makeTestWorkflow("same", "Same")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteFailure(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectExec("DELETE FROM workflows WHERE id = $1").
		WithArgs("wf-5").
		WillReturnError(errors.New("read-only transaction"))

	err := s.Delete(context.Background(), "wf-5")
	require.Error(t, err)
	assert.True(t, tferrors.IsStorage(err))
}
