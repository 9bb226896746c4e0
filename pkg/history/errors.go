package history

import "fmt"

// StorageError reports a failed storage operation.
type StorageError struct {
	Backend   string // "sqlite" or "memory"
	Operation string // "open", "store", "query", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(backend, op string, err error) error {
	return &StorageError{Backend: backend, Operation: op, Cause: err}
}
