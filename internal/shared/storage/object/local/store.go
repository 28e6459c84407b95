package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"partner-portal-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem. It exists for dev
// and tests; production uses the S3 store.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// SaveWithKey writes the reader to disk under the given storage key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

// Open returns a reader over a stored object.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", storageKey, err)
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %s: %w", storageKey, err)
	}
	return nil
}

func (s *Store) resolve(storageKey string) (string, error) {
	clean := strings.TrimLeft(filepath.Clean("/"+storageKey), "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

var _ object.ObjectStore = (*Store)(nil)
