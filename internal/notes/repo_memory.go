package notes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for dev and tests.
type MemoryRepo struct {
	mu    sync.Mutex
	notes []Note
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a note.
func (r *MemoryRepo) Create(ctx context.Context, note Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
	return nil
}

// ListByApplication returns notes oldest first.
func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Note
	for _, n := range r.notes {
		if n.ApplicationID == applicationID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
