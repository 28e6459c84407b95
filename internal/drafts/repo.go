package drafts

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no draft file matched.
	ErrNotFound = errors.New("draft file not found")
	// ErrInvalidInput indicates a malformed upload request.
	ErrInvalidInput = errors.New("invalid input")
)

// Repo defines persistence operations for draft file metadata.
type Repo interface {
	Create(ctx context.Context, draft DraftFile) error
	ListByInvitation(ctx context.Context, invitationCode string) ([]DraftFile, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteBySlot removes any prior rows occupying the same logical upload
	// slot and returns them so the caller can clean up scratch objects.
	DeleteBySlot(ctx context.Context, invitationCode, fieldName, originalFilename string) ([]DraftFile, error)
}
