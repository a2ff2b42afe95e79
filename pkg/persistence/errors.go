package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTemplateNotFound indicates no template exists for the identifier.
	ErrTemplateNotFound = errors.New("workflow template not found")

	// ErrFinishedInstanceNotFound indicates no archived report exists for
	// the instance id.
	ErrFinishedInstanceNotFound = errors.New("finished instance not found")
)

// StorageError wraps storage failures with operation context.
type StorageError struct {
	Op  string // Operation being performed (e.g., "TemplateByID", "InsertFinishedInstance")
	Key string // Template or instance id if applicable
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStorageError creates a storage error with context.
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsTemplateNotFound checks if an error indicates a missing template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
