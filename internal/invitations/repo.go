package invitations

import (
	"context"
	"errors"
)

// ErrNotFound indicates the invitation code does not exist.
var ErrNotFound = errors.New("invitation not found")

// Repo defines read-only access to invitations.
type Repo interface {
	GetByCode(ctx context.Context, code string) (Invitation, error)
}
