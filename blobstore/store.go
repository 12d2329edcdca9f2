// Package blobstore abstracts where index snapshots live: local disk,
// in-memory (tests), or object storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a named snapshot does not exist.
//
// Implementations return an error satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store persists named immutable snapshots.
type Store interface {
	// Open opens a snapshot for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a snapshot atomically: a concurrent Open sees either the
	// previous content or the new one, never a partial write.
	Put(ctx context.Context, name string, r io.Reader) error

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the snapshot names matching the prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to snapshot content.
type Blob interface {
	io.ReaderAt
	io.Closer

	// Size returns the content length in bytes.
	Size() int64
}

// Reader adapts a blob to sequential reading from the start.
func Reader(b Blob) io.Reader {
	return io.NewSectionReader(b, 0, b.Size())
}
