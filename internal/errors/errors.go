// Package errors provides the structured error types used across tabflow.
//
// Base errors are sentinel values compared with errors.Is. Wrapped error
// types add context (operation, workflow id, backend) and unwrap to their
// sentinel so callers can branch on the category without caring about the
// concrete type.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrNotFound - operation on a missing workflow or step id
//   - ErrAlreadyExists - duplicate key on insert
//   - ErrInvalid - validation failed (import payloads, config, colors)
//   - ErrStorage - the storage medium failed
//   - ErrRemoteSearch - the AI ranking call failed
//   - ErrEnrichment - a favicon/title lookup failed (logged, never surfaced)
//   - ErrCanceled - user canceled the operation
//   - ErrClosed - the editor session is already closed
//
// Wrapped error types (add context):
//   - WorkflowError{Op, Err, ID} - workflow operation errors
//   - StorageError{Backend, Op, Err} - backend I/O errors
//   - ValidationError{Index, Field, Reason} - malformed import payload
//   - RemoteSearchError{Provider, Err} - AI search failures
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	return &errors.WorkflowError{Op: "update", Err: errors.ErrNotFound, ID: id}
//
//	if errors.IsNotFound(err) {
//	    // handle not found
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = baseError("not found")

	// ErrAlreadyExists indicates a duplicate key.
	ErrAlreadyExists = baseError("already exists")

	// ErrInvalid indicates validation failed.
	ErrInvalid = baseError("invalid")

	// ErrStorage indicates the storage backend failed.
	ErrStorage = baseError("storage error")

	// ErrRemoteSearch indicates the remote ranking call failed.
	ErrRemoteSearch = baseError("remote search failed")

	// ErrEnrichment indicates a site info lookup failed.
	ErrEnrichment = baseError("enrichment failed")

	// ErrCanceled indicates the user canceled an operation.
	ErrCanceled = baseError("canceled")

	// ErrClosed indicates the editor session was already saved or canceled.
	ErrClosed = baseError("session closed")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// WorkflowError represents an error that occurred during a workflow operation.
type WorkflowError struct {
	// Op is the operation being performed (e.g., "add", "update", "delete").
	Op string
	// Err is the underlying error.
	Err error
	// ID is the workflow identifier (optional).
	ID string
}

func (e *WorkflowError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("workflow %s %q: %s", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("workflow %s: %s", e.Op, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// StorageError represents a failure of the underlying storage medium.
type StorageError struct {
	// Backend names the store implementation (e.g., "file", "sqlite").
	Backend string
	// Op is the store operation (e.g., "getAll", "add").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s store %s: %s", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports StorageError as ErrStorage regardless of the wrapped cause.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ValidationError describes why an import payload was rejected.
type ValidationError struct {
	// Index is the offending element position, or -1 for the whole payload.
	Index int
	// Field is the offending field name (optional).
	Field string
	// Reason is a human readable explanation.
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("invalid payload: %s", e.Reason)
	case e.Field != "":
		return fmt.Sprintf("invalid workflow at index %d: %s %s", e.Index, e.Field, e.Reason)
	default:
		return fmt.Sprintf("invalid workflow at index %d: %s", e.Index, e.Reason)
	}
}

// Is reports ValidationError as ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// RemoteSearchError represents a network or parse failure of the AI ranking call.
type RemoteSearchError struct {
	// Provider is the ranking provider name.
	Provider string
	// Err is the underlying error.
	Err error
}

func (e *RemoteSearchError) Error() string {
	return fmt.Sprintf("remote search (%s): %s", e.Provider, e.Err)
}

func (e *RemoteSearchError) Unwrap() error { return e.Err }

// Is reports RemoteSearchError as ErrRemoteSearch.
func (e *RemoteSearchError) Is(target error) bool { return target == ErrRemoteSearch }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	return &wrappedError{op: op, err: err}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op  string
	err error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }
func (e *wrappedError) Unwrap() error { return e.err }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsStorage reports whether err is or wraps ErrStorage.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRemoteSearch reports whether err is or wraps ErrRemoteSearch.
func IsRemoteSearch(err error) bool {
	return errors.Is(err, ErrRemoteSearch)
}

// IsEnrichment reports whether err is or wraps ErrEnrichment.
func IsEnrichment(err error) bool {
	return errors.Is(err, ErrEnrichment)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsClosed reports whether err is or wraps ErrClosed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// AsWorkflowError reports whether err can be typed as a *WorkflowError.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// AsStorageError reports whether err can be typed as a *StorageError.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsValidationError reports whether err can be typed as a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
