package store

import (
	"context"

	"github.com/chazuruo/tabflow/internal/workflows"
)

// Store defines the interface for workflow persistence operations.
//
// Implementations return deep copies: mutating a returned workflow never
// changes stored state. Medium failures are reported as *errors.StorageError.
type Store interface {
	// GetAll returns every workflow in storage order.
	GetAll(ctx context.Context) ([]*workflows.Workflow, error)

	// Get returns the workflow with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*workflows.Workflow, error)

	// Add inserts a new workflow. A workflow with the same id
	// fails with ErrAlreadyExists.
	Add(ctx context.Context, wf *workflows.Workflow) error

	// Update replaces the workflow with the matching id, or fails with ErrNotFound.
	Update(ctx context.Context, wf *workflows.Workflow) error

	// Delete removes the workflow with the given id. Deleting an absent id
	// is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying medium.
	Close() error
}

// Saver is the subset of Store an editor session needs to commit.
type Saver interface {
	Add(ctx context.Context, wf *workflows.Workflow) error
	Update(ctx context.Context, wf *workflows.Workflow) error
}

func cloneAll(in []*workflows.Workflow) []*workflows.Workflow {
	out := make([]*workflows.Workflow, len(in))
	for i, wf := range in {
		out[i] = wf.Clone()
	}
	return out
}
