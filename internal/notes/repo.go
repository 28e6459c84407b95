package notes

import (
	"context"
	"errors"
)

// ErrInvalidInput indicates a malformed note.
var ErrInvalidInput = errors.New("invalid note input")

// Repo defines persistence for application notes. Notes are append-only.
type Repo interface {
	Create(ctx context.Context, note Note) error
	ListByApplication(ctx context.Context, applicationID string) ([]Note, error)
}
