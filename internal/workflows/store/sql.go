package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/workflows"
)

const selectColumns = "id, name, description, color, steps, created_at, updated_at"

// SQLStore implements the Store interface over a keyed workflows table.
// Storage order is the insertion sequence kept in the seq column.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database whose schema is already migrated.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if _, err := ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Dialect returns the SQL dialect of the store.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// GetAll returns every workflow ordered by insertion sequence.
func (s *SQLStore) GetAll(ctx context.Context) ([]*workflows.Workflow, error) {
	query := "SELECT " + selectColumns + " FROM workflows ORDER BY seq"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.storageErr("getAll", err)
	}
	defer rows.Close()

	var out []*workflows.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, s.storageErr("getAll", err)
		}
		out = append(out, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageErr("getAll", err)
	}
	return out, nil
}

// Get returns the workflow with the given id.
func (s *SQLStore) Get(ctx context.Context, id string) (*workflows.Workflow, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = %s", selectColumns, s.dialect.placeholder(1))
	wf, err := scanWorkflow(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &tferrors.WorkflowError{Op: "get", Err: tferrors.ErrNotFound, ID: id}
	}
	if err != nil {
		return nil, s.storageErr("get", err)
	}
	return wf, nil
}

// Add inserts the workflow at the end of the sequence.
func (s *SQLStore) Add(ctx context.Context, wf *workflows.Workflow) error {
	steps, err := json.Marshal(stepsOrEmpty(wf.Steps))
	if err != nil {
		return s.storageErr("add", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.storageErr("add", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	existsQuery := "SELECT COUNT(*) FROM workflows WHERE id = " + s.dialect.placeholder(1)
	if err := tx.QueryRowContext(ctx, existsQuery, wf.ID).Scan(&count); err != nil {
		return s.storageErr("add", err)
	}
	if count > 0 {
		return &tferrors.WorkflowError{Op: "add", Err: tferrors.ErrAlreadyExists, ID: wf.ID}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM workflows").Scan(&seq); err != nil {
		return s.storageErr("add", err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO workflows (id, seq, name, description, color, steps, created_at, updated_at) VALUES (%s)",
		s.dialect.placeholders(8),
	)
	if _, err := tx.ExecContext(ctx, insert,
		wf.ID, seq+1, wf.Name, wf.Description, wf.Color, string(steps),
		formatTime(wf.CreatedAt), formatTime(wf.UpdatedAt),
	); err != nil {
		return s.storageErr("add", err)
	}

	if err := tx.Commit(); err != nil {
		return s.storageErr("add", err)
	}
	return nil
}

// Update replaces every column of the matching row except its sequence.
func (s *SQLStore) Update(ctx context.Context, wf *workflows.Workflow) error {
	steps, err := json.Marshal(stepsOrEmpty(wf.Steps))
	if err != nil {
		return s.storageErr("update", err)
	}

	d := s.dialect
	update := fmt.Sprintf(
		"UPDATE workflows SET name = %s, description = %s, color = %s, steps = %s, created_at = %s, updated_at = %s WHERE id = %s",
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4), d.placeholder(5), d.placeholder(6), d.placeholder(7),
	)
	res, err := s.db.ExecContext(ctx, update,
		wf.Name, wf.Description, wf.Color, string(steps),
		formatTime(wf.CreatedAt), formatTime(wf.UpdatedAt), wf.ID,
	)
	if err != nil {
		return s.storageErr("update", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return s.storageErr("update", err)
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an unchanged record.
	if _, err := s.Get(ctx, wf.ID); err != nil {
		if tferrors.IsNotFound(err) {
			return &tferrors.WorkflowError{Op: "update", Err: tferrors.ErrNotFound, ID: wf.ID}
		}
		return err
	}
	return nil
}

// Delete removes the row with the given id, if present.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM workflows WHERE id = " + s.dialect.placeholder(1)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return s.storageErr("delete", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) storageErr(op string, err error) error {
	return &tferrors.StorageError{Backend: string(s.dialect), Op: op, Err: err}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(r rowScanner) (*workflows.Workflow, error) {
	var (
		wf                   workflows.Workflow
		steps                string
		createdAt, updatedAt string
	)
	if err := r.Scan(&wf.ID, &wf.Name, &wf.Description, &wf.Color, &steps, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(steps), &wf.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps of %q: %w", wf.ID, err)
	}
	var err error
	if wf.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at of %q: %w", wf.ID, err)
	}
	if wf.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at of %q: %w", wf.ID, err)
	}
	return &wf, nil
}

func stepsOrEmpty(steps []workflows.Step) []workflows.Step {
	if steps == nil {
		return []workflows.Step{}
	}
	return steps
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
