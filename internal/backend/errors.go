package backend

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrBackend      = errors.New("backend error")
	ErrBufferLimit  = errors.New("buffer limit reached")
	ErrUnavailable  = errors.New("backend not available")
	ErrNotRetrieved = errors.New("tensor has not been staged for retrieval")
)

// Error wraps a failure that happened while talking to a device.
// It matches ErrBackend through errors.Is.
type Error struct {
	Op  string // Operation that failed (e.g. "compute", "retrieve").
	Err error  // Underlying cause.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackend, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBackend.
func (e *Error) Is(target error) bool {
	return target == ErrBackend
}

// Wrap returns err as an *Error for op, or nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// BufferLimitError reports that a shader needs more storage buffers than the
// device allows.
func BufferLimitError(used, limit int) error {
	return fmt.Errorf("%w: %d buffers used, limit %d", ErrBufferLimit, used, limit)
}
