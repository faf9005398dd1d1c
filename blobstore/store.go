package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing immutable snapshot
// blobs.
type Store interface {
	// Put writes a blob atomically under name, replacing any previous
	// content.
	Put(ctx context.Context, name string, data []byte) error

	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to one stored blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at off. Short reads at the end
	// of the blob return io.EOF.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the blob size in bytes.
	Size() int64
}

// ReadAll reads an entire blob into memory and closes it.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	defer b.Close()
	data := make([]byte, b.Size())
	if len(data) == 0 {
		return data, nil
	}
	n, err := b.ReadAt(ctx, data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}
