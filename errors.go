package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for an empty name or a name containing the path separator
	ErrInvalidName = errors.New("invalid name")
	// ErrDuplicateName is returned when a sibling with the same name already exists
	ErrDuplicateName = errors.New("name already exists")
	// ErrNotADirectory is returned when a path walks through a file where a directory is required
	ErrNotADirectory = errors.New("not a directory")
	// ErrNotFound is returned when a path does not resolve to a node
	ErrNotFound = errors.New("no such file or directory")
	// ErrCorruptContainer is returned when container bytes cannot be decoded
	ErrCorruptContainer = errors.New("corrupt container")
	// ErrContainerTooLarge is returned when a tree does not fit the 32-bit container layout
	ErrContainerTooLarge = errors.New("container too large")
	// ErrContainerInUse is returned when a container is already open in this process
	ErrContainerInUse = errors.New("container already open")
	// ErrExists is returned when a host destination already exists and overwrite is off
	ErrExists = errors.New("destination exists")
	// ErrIsDirectory is returned when a host destination is a directory
	ErrIsDirectory = errors.New("destination is a directory")
)

// IOError wraps a failure of the host file system while reading or writing
// a container or an imported/exported file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError returns nil if err is nil, otherwise err wrapped in an [IOError]
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
