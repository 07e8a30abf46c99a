package audit

import "fmt"

// StorageError represents an error from an audit storage backend.
type StorageError struct {
	Backend   string // backend type ("sqlite", "memory")
	Operation string // operation that failed ("store_run", "decisions", etc.)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RecorderError represents a failure to record a run's audit trail.
type RecorderError struct {
	RunID string
	Cause error
}

// Error implements the error interface.
func (e *RecorderError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("audit recorder error [run_id=%s]: %v", e.RunID, e.Cause)
	}
	return fmt.Sprintf("audit recorder error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RecorderError) Unwrap() error {
	return e.Cause
}

// NewRecorderError creates a new RecorderError.
func NewRecorderError(runID string, cause error) *RecorderError {
	return &RecorderError{RunID: runID, Cause: cause}
}
