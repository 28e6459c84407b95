package drafts

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]DraftFile // id -> draft
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]DraftFile)}
}

// Create stores a draft file row.
func (r *MemoryRepo) Create(ctx context.Context, draft DraftFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[draft.ID] = draft
	return nil
}

// ListByInvitation returns outstanding drafts for an invitation, oldest first.
func (r *MemoryRepo) ListByInvitation(ctx context.Context, invitationCode string) ([]DraftFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DraftFile
	for _, d := range r.data {
		if d.InvitationCode == invitationCode {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

// DeleteByID removes one draft file row.
func (r *MemoryRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// DeleteBySlot removes prior rows for the same upload slot.
func (r *MemoryRepo) DeleteBySlot(ctx context.Context, invitationCode, fieldName, originalFilename string) ([]DraftFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []DraftFile
	for id, d := range r.data {
		if d.InvitationCode == invitationCode && d.FieldName == fieldName && d.OriginalFilename == originalFilename {
			removed = append(removed, d)
			delete(r.data, id)
		}
	}
	return removed, nil
}

var _ Repo = (*MemoryRepo)(nil)
