package corelib

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrMissingMarker  = errors.New("marker not found in root module")
	ErrInvalidLibrary = errors.New("invalid library name")
)

// ErrorKind is a coarse-grained categorization for merge failures.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindIO            ErrorKind = "io"
	KindMissingMarker ErrorKind = "missing_marker"
	KindInvalid       ErrorKind = "invalid"
)

// OpError wraps an underlying error with the merge step that produced it.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is an *OpError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

func ioError(op, path string, err error) error {
	return &OpError{Op: op, Kind: KindIO, Path: path, Err: err}
}
