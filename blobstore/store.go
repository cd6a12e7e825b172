// Package blobstore abstracts the remote object store the migration reads
// from and writes to. Names are slash-delimited keys; a prefix is a plain
// string namespace root with no wildcard semantics.
package blobstore

import (
	"context"
	"errors"
)

// ObjectInfo describes one remote object.
type ObjectInfo struct {
	Name string
	Size int64
}

// ErrAlreadyExists is returned by Put when overwrite is off and the target
// object exists. The text deliberately carries the storage-layer condition
// name so log-driven failure analysis can recognize it as benign.
var ErrAlreadyExists = errors.New("BlobAlreadyExists: target object already exists")

// ErrNotExist is returned by Get when the named object is missing.
var ErrNotExist = errors.New("object does not exist")

// ObjectStore is the blob store contract the migration driver depends on.
type ObjectStore interface {
	// List returns all objects whose name starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Stat returns info for a single object, ErrNotExist if missing.
	Stat(ctx context.Context, name string) (ObjectInfo, error)

	// Get downloads the named object to localPath.
	Get(ctx context.Context, name, localPath string) error

	// Put uploads localPath as the named object. With overwrite off the
	// upload fails with ErrAlreadyExists when the object is present.
	Put(ctx context.Context, name, localPath string, overwrite bool) error

	// Exists reports whether the named object is present.
	Exists(ctx context.Context, name string) (bool, error)
}
