// Package vfs contains core domain types and interfaces for the container-backed
// virtual filesystem
package vfs

import "context"

// Backend persists the serialized container bytes. Implementations read and write
// the whole container at once; partial reads and writes are not supported.
type Backend interface {
	// ReadContainer returns the complete container contents
	ReadContainer() ([]byte, error)

	// WriteContainer replaces the complete container contents with data.
	// A failed write must leave the previous contents intact.
	WriteContainer(data []byte) error
}

// Source retrieves a file payload from somewhere outside the container
// (a URL, a host file, etc). Instances are 1:1 with the file being created.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// SourceProvider is a factory for concrete [Source] implementations
// generated from a request's raw source config.
type SourceProvider interface {
	NewSource(raw []byte) (Source, error)
}
