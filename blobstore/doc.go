// Package blobstore abstracts the durable storage that animation key
// snapshots are saved to and loaded from. Stores are addressed by flat,
// slash-separated names; blobs are immutable once written.
//
// The package ships an in-memory store for tests and a filesystem store;
// the minio and s3 subpackages back the same interface with object
// storage.
package blobstore
