package invitations

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Invitation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Invitation)}
}

// Seed inserts or replaces an invitation. Test helper; invitations are
// created externally in production.
func (r *MemoryRepo) Seed(inv Invitation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[inv.Code] = inv
}

// GetByCode returns an invitation by its code.
func (r *MemoryRepo) GetByCode(ctx context.Context, code string) (Invitation, error) {
	if err := ctx.Err(); err != nil {
		return Invitation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.data[code]
	if !ok {
		return Invitation{}, ErrNotFound
	}
	return inv, nil
}

var _ Repo = (*MemoryRepo)(nil)
