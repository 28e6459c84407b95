package reviews

import (
	"context"
	"sort"
	"sync"
)

type reviewKey struct {
	applicationID string
	section       string
}

// MemoryRepo is an in-memory Repo for dev and tests.
type MemoryRepo struct {
	mu      sync.Mutex
	reviews map[reviewKey]SectionReview
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reviews: make(map[reviewKey]SectionReview)}
}

// Upsert inserts or replaces the review for (application, section).
func (r *MemoryRepo) Upsert(ctx context.Context, review SectionReview) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[reviewKey{review.ApplicationID, review.Section}] = review
	return nil
}

// ListByApplication returns reviews for an application in section name order.
func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]SectionReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []SectionReview
	for k, rv := range r.reviews {
		if k.applicationID == applicationID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}

// DeleteByApplication removes all reviews for an application.
func (r *MemoryRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.reviews {
		if k.applicationID == applicationID {
			delete(r.reviews, k)
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
