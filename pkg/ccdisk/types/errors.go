package types

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Sentinel error kinds. Use errors.Is against these; PathError values match
// the sentinel stored in their Kind.
var (
	// ErrNotFound means an expected target is absent. Executors turn it
	// into a skip result rather than an error.
	ErrNotFound = errors.New("not found")

	// ErrPermission means a target could not be read or written.
	ErrPermission = errors.New("permission denied")

	// ErrBackupIO means the backup store could not be created or written.
	ErrBackupIO = errors.New("backup store unwritable")

	// ErrTraversalRejected means a candidate path resolved outside its
	// expected root.
	ErrTraversalRejected = errors.New("path outside expected root")

	// ErrPartialFailure marks an action where some targets failed.
	ErrPartialFailure = errors.New("partial failure")

	// ErrTransactionNotFound means a backup transaction or its manifest
	// does not exist.
	ErrTransactionNotFound = errors.New("backup transaction not found")
)

// PathError records an operation that failed on a specific path.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *PathError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Classify wraps err in a PathError whose Kind reflects the underlying OS
// failure. Nil errors stay nil; errors that are already PathErrors are
// returned unchanged.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}

	return &PathError{Op: op, Path: path, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM):
		return ErrPermission
	default:
		return nil
	}
}
