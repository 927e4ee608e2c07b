package graph

import (
	"errors"
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// Common errors. Every error returned by this package is an *Error matching
// one of these through errors.Is.
var (
	ErrBlockAlreadyExists = errors.New("block already exists")
	ErrBlockNotFound      = errors.New("block not found")
	ErrSourceNotFound     = errors.New("source not found")
	ErrInvalidLinkPath    = errors.New("invalid link path")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrShapeMismatch      = tensor.ErrShapeMismatch
	ErrParameter          = errors.New("invalid parameter")
	ErrBackend            = backend.ErrBackend
	ErrTensor             = errors.New("tensor error")
	ErrChannelClosed      = errors.New("channel closed")
)

// ErrorKind classifies graph errors.
type ErrorKind int

// Error kinds.
const (
	KindBlockAlreadyExists ErrorKind = iota
	KindBlockNotFound
	KindSourceNotFound
	KindInvalidLinkPath
	KindTypeMismatch
	KindShapeMismatch
	KindParameter
	KindBackend
	KindTensor
)

// Sentinel returns the sentinel error of the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindBlockAlreadyExists:
		return ErrBlockAlreadyExists
	case KindBlockNotFound:
		return ErrBlockNotFound
	case KindSourceNotFound:
		return ErrSourceNotFound
	case KindInvalidLinkPath:
		return ErrInvalidLinkPath
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindShapeMismatch:
		return ErrShapeMismatch
	case KindParameter:
		return ErrParameter
	case KindBackend:
		return ErrBackend
	case KindTensor:
		return ErrTensor
	default:
		return errors.New("unknown graph error")
	}
}

func (k ErrorKind) String() string {
	return k.Sentinel().Error()
}

// Error is a graph error with a subject (block label, path, parameter) and an
// optional cause.
type Error struct {
	Kind    ErrorKind
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Subject != "":
		return fmt.Sprintf("%s: %v", e.Subject, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Subject != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
	default:
		return e.Kind.String()
	}
}

// Is reports whether target is the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Subject: fmt.Sprintf(format, args...)}
}
