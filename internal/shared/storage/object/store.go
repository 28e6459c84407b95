package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for the scratch object store. Everything
// is addressed by an explicit storage key; key construction and metadata
// bookkeeping belong to the caller.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
