package drafts

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/shared/storage/object"
	"partner-portal-backend/internal/shared/telemetry"
)

// ErrInvitationNotUsable indicates the invitation is revoked or expired.
var ErrInvitationNotUsable = fmt.Errorf("invitation is not active")

// Service contains business logic for draft uploads.
type Service struct {
	Store       object.ObjectStore
	Repo        Repo
	Invitations invitations.Repo
}

// Put stores one uploaded file in scratch storage and records its metadata.
// A re-upload into the same (invitation, field, filename) slot replaces the
// previous draft: the old row and scratch object are removed first.
func (s *Service) Put(ctx context.Context, invitationCode, fieldName, filename, contentType string, r io.Reader) (DraftFile, error) {
	if invitationCode == "" || fieldName == "" || filename == "" {
		return DraftFile{}, ErrInvalidInput
	}

	inv, err := s.Invitations.GetByCode(ctx, invitationCode)
	if err != nil {
		return DraftFile{}, err
	}
	if !inv.Usable() {
		return DraftFile{}, ErrInvitationNotUsable
	}

	now := time.Now().UTC()
	key := ScratchKey(inv.Code, fieldName, filename, now)

	stale, err := s.Repo.DeleteBySlot(ctx, inv.Code, fieldName, filename)
	if err != nil {
		return DraftFile{}, fmt.Errorf("replace draft slot: %w", err)
	}
	for _, old := range stale {
		if old.ScratchKey == key {
			continue
		}
		if err := s.Store.Delete(ctx, old.ScratchKey); err != nil {
			telemetry.Warn("drafts.replace.cleanup_failed", map[string]any{
				"invitation_code": inv.Code,
				"scratch_key":     old.ScratchKey,
				"err":             err.Error(),
			})
		}
	}

	size, err := s.Store.SaveWithKey(ctx, key, contentType, r)
	if err != nil {
		return DraftFile{}, fmt.Errorf("save scratch object: %w", err)
	}

	draft := DraftFile{
		ID:               uuid.NewString(),
		InvitationCode:   inv.Code,
		FieldName:        fieldName,
		ScratchKey:       key,
		OriginalFilename: filename,
		ContentType:      contentType,
		SizeBytes:        size,
		UploadedAt:       now,
	}

	if err := s.Repo.Create(ctx, draft); err != nil {
		return DraftFile{}, err
	}
	return draft, nil
}

// List returns all outstanding drafts for an invitation.
func (s *Service) List(ctx context.Context, invitationCode string) ([]DraftFile, error) {
	if invitationCode == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByInvitation(ctx, invitationCode)
}

// Open returns a reader over a draft's scratch bytes.
func (s *Service) Open(ctx context.Context, draft DraftFile) (io.ReadCloser, error) {
	return s.Store.Open(ctx, draft.ScratchKey)
}

// Discard removes the scratch object and then the metadata row, in that
// order: a crash in between leaves a row pointing at a missing object, which
// the next migration run skips, rather than an untracked orphan object.
func (s *Service) Discard(ctx context.Context, draft DraftFile) error {
	if err := s.Store.Delete(ctx, draft.ScratchKey); err != nil {
		return err
	}
	return s.Repo.DeleteByID(ctx, draft.ID)
}
