package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
	"github.com/chazuruo/tabflow/internal/workflows"
)

const fileBackend = "file"

// document is the on-disk layout: every workflow under one key.
type document struct {
	Workflows []*workflows.Workflow `json:"workflows"`
}

// FileStore implements the Store interface with a single JSON file.
//
// Every mutation is a read-modify-write of the whole collection, serialized
// by a mutex and written atomically through a temp file and rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore backed by the file at path.
// The file and its directory are created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// GetAll returns every workflow in array order.
func (s *FileStore) GetAll(ctx context.Context) ([]*workflows.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wfs, err := s.load(ctx, "getAll")
	if err != nil {
		return nil, err
	}
	return cloneAll(wfs), nil
}

// Get returns the workflow with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (*workflows.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wfs, err := s.load(ctx, "get")
	if err != nil {
		return nil, err
	}
	if i := indexOf(wfs, id); i >= 0 {
		return wfs[i].Clone(), nil
	}
	return nil, &tferrors.WorkflowError{Op: "get", Err: tferrors.ErrNotFound, ID: id}
}

// Add appends a workflow to the collection.
func (s *FileStore) Add(ctx context.Context, wf *workflows.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wfs, err := s.load(ctx, "add")
	if err != nil {
		return err
	}
	if indexOf(wfs, wf.ID) >= 0 {
		return &tferrors.WorkflowError{Op: "add", Err: tferrors.ErrAlreadyExists, ID: wf.ID}
	}
	return s.save("add", append(wfs, wf.Clone()))
}

// Update replaces the workflow with the matching id in place.
func (s *FileStore) Update(ctx context.Context, wf *workflows.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wfs, err := s.load(ctx, "update")
	if err != nil {
		return err
	}
	i := indexOf(wfs, wf.ID)
	if i < 0 {
		return &tferrors.WorkflowError{Op: "update", Err: tferrors.ErrNotFound, ID: wf.ID}
	}
	wfs[i] = wf.Clone()
	return s.save("update", wfs)
}

// Delete removes the workflow with the given id, if present.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wfs, err := s.load(ctx, "delete")
	if err != nil {
		return err
	}
	i := indexOf(wfs, id)
	if i < 0 {
		return nil
	}
	return s.save("delete", append(wfs[:i], wfs[i+1:]...))
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

// load reads the collection. A missing file is an empty collection.
func (s *FileStore) load(ctx context.Context, op string) ([]*workflows.Workflow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &tferrors.StorageError{Backend: fileBackend, Op: op, Err: fmt.Errorf("failed to decode %s: %w", s.path, err)}
	}
	return doc.Workflows, nil
}

// save writes the whole collection through a temp file in the same directory.
func (s *FileStore) save(op string, wfs []*workflows.Workflow) error {
	if wfs == nil {
		wfs = []*workflows.Workflow{}
	}
	data, err := json.MarshalIndent(document{Workflows: wfs}, "", "  ")
	if err != nil {
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".workflows-*.json")
	if err != nil {
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &tferrors.StorageError{Backend: fileBackend, Op: op, Err: err}
	}
	return nil
}

func indexOf(wfs []*workflows.Workflow, id string) int {
	for i, wf := range wfs {
		if wf.ID == id {
			return i
		}
	}
	return -1
}
