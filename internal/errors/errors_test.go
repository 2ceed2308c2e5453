package errors_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	tferrors "github.com/chazuruo/tabflow/internal/errors"
)

// TestBaseErrors verifies that all base error types have correct messages.
func TestBaseErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", tferrors.ErrNotFound, "not found"},
		{"ErrAlreadyExists", tferrors.ErrAlreadyExists, "already exists"},
		{"ErrInvalid", tferrors.ErrInvalid, "invalid"},
		{"ErrStorage", tferrors.ErrStorage, "storage error"},
		{"ErrRemoteSearch", tferrors.ErrRemoteSearch, "remote search failed"},
		{"ErrEnrichment", tferrors.ErrEnrichment, "enrichment failed"},
		{"ErrCanceled", tferrors.ErrCanceled, "canceled"},
		{"ErrClosed", tferrors.ErrClosed, "session closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWorkflowError verifies WorkflowError formatting and unwrapping.
func TestWorkflowError(t *testing.T) {
	tests := []struct {
		name string
		err  *tferrors.WorkflowError
		want string
	}{
		{
			name: "with ID",
			err:  &tferrors.WorkflowError{Op: "update", Err: tferrors.ErrNotFound, ID: "wf-1"},
			want: `workflow update "wf-1": not found`,
		},
		{
			name: "without ID",
			err:  &tferrors.WorkflowError{Op: "import", Err: tferrors.ErrInvalid},
			want: "workflow import: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("Unwrap returns original error", func(t *testing.T) {
		wrapped := &tferrors.WorkflowError{Op: "get", Err: tferrors.ErrNotFound}
		if !errors.Is(wrapped, tferrors.ErrNotFound) {
			t.Error("Unwrap() did not return the original error for errors.Is")
		}
	})
}

// TestStorageError verifies StorageError matches ErrStorage and keeps its cause.
func TestStorageError(t *testing.T) {
	err := &tferrors.StorageError{Backend: "file", Op: "add", Err: io.ErrUnexpectedEOF}

	if got, want := err.Error(), "file store add: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !tferrors.IsStorage(err) {
		t.Error("IsStorage(StorageError) = false, want true")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("StorageError does not unwrap to its cause")
	}
	if tferrors.IsNotFound(err) {
		t.Error("IsNotFound(StorageError) = true, want false")
	}

	wrapped := fmt.Errorf("saving: %w", err)
	se, ok := tferrors.AsStorageError(wrapped)
	if !ok || se.Backend != "file" {
		t.Errorf("AsStorageError(wrapped) = %v, %v", se, ok)
	}
}

// TestValidationError verifies message variants and ErrInvalid matching.
func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *tferrors.ValidationError
		want string
	}{
		{"payload", &tferrors.ValidationError{Index: -1, Reason: "not an array"}, "invalid payload: not an array"},
		{"field", &tferrors.ValidationError{Index: 2, Field: "steps", Reason: "must be an array"}, "invalid workflow at index 2: steps must be an array"},
		{"no field", &tferrors.ValidationError{Index: 0, Reason: "not an object"}, "invalid workflow at index 0: not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !tferrors.IsInvalid(tt.err) {
				t.Error("IsInvalid(ValidationError) = false, want true")
			}
		})
	}
}

// TestRemoteSearchError verifies RemoteSearchError matching.
func TestRemoteSearchError(t *testing.T) {
	err := &tferrors.RemoteSearchError{Provider: "openai", Err: io.EOF}
	if !tferrors.IsRemoteSearch(err) {
		t.Error("IsRemoteSearch(RemoteSearchError) = false, want true")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("RemoteSearchError does not unwrap to its cause")
	}
	if got, want := err.Error(), "remote search (openai): EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// TestEnrichmentError verifies a wrapped enrichment failure keeps its category.
func TestEnrichmentError(t *testing.T) {
	err := tferrors.Wrap(fmt.Errorf("%w: %w", tferrors.ErrEnrichment, io.EOF), "fetch example.com")
	if !tferrors.IsEnrichment(err) {
		t.Error("IsEnrichment(wrapped) = false, want true")
	}
	if !errors.Is(err, io.EOF) {
		t.Error("wrapped enrichment error does not unwrap to its cause")
	}
	if got, want := err.Error(), "fetch example.com: enrichment failed: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// TestConfigError verifies ConfigError formatting and unwrapping.
func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *tferrors.ConfigError
		want string
	}{
		{
			name: "with path",
			err:  &tferrors.ConfigError{Path: "~/.config/tabflow/config.toml", Err: tferrors.ErrInvalid},
			want: "config ~/.config/tabflow/config.toml: invalid",
		},
		{
			name: "without path",
			err:  &tferrors.ConfigError{Err: tferrors.ErrNotFound},
			want: "config: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	ce, ok := tferrors.AsConfigError(tferrors.Wrap(&tferrors.ConfigError{Path: "/p", Err: tferrors.ErrInvalid}, "load"))
	if !ok || ce.Path != "/p" {
		t.Errorf("AsConfigError(wrapped) = %v, %v", ce, ok)
	}
}

// TestErrorChaining verifies that error chaining works correctly.
func TestErrorChaining(t *testing.T) {
	base := tferrors.ErrNotFound
	layer1 := tferrors.Wrap(base, "layer1")
	layer2 := tferrors.Wrap(layer1, "layer2")

	if !errors.Is(layer2, base) {
		t.Error("double-wrapped error does not match base via errors.Is")
	}
	if got, want := layer2.Error(), "layer2: layer1: not found"; got != want {
		t.Errorf("chained message = %q, want %q", got, want)
	}

	workflowErr := &tferrors.WorkflowError{Op: "delete", Err: tferrors.ErrClosed, ID: "x"}
	we, ok := tferrors.AsWorkflowError(tferrors.Wrap(workflowErr, "editor"))
	if !ok || we.ID != "x" {
		t.Errorf("AsWorkflowError(chain) = %v, %v", we, ok)
	}
	if !tferrors.IsClosed(workflowErr) {
		t.Error("IsClosed(WorkflowError{ErrClosed}) = false, want true")
	}
}
