package reviews

import (
	"context"
	"errors"
)

// ErrInvalidInput indicates a malformed review mutation.
var ErrInvalidInput = errors.New("invalid review input")

// Repo defines persistence for section reviews.
type Repo interface {
	// Upsert inserts or replaces the review for (application, section).
	Upsert(ctx context.Context, review SectionReview) error
	ListByApplication(ctx context.Context, applicationID string) ([]SectionReview, error)
	DeleteByApplication(ctx context.Context, applicationID string) error
}
