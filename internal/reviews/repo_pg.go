package reviews

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the review for (application, section).
func (r *PGRepo) Upsert(ctx context.Context, review SectionReview) error {
	const query = `
INSERT INTO section_reviews (application_id, section, status, reviewer, note, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (application_id, section)
DO UPDATE SET status = EXCLUDED.status,
              reviewer = EXCLUDED.reviewer,
              note = EXCLUDED.note,
              updated_at = EXCLUDED.updated_at`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		review.ApplicationID,
		review.Section,
		review.Status,
		nullString(review.ReviewedBy),
		nullString(review.Note),
		review.ReviewedAt,
	)
	return err
}

// ListByApplication returns reviews for an application, section order is the
// caller's concern.
func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]SectionReview, error) {
	const query = `
SELECT application_id, section, status, COALESCE(reviewer, ''), COALESCE(note, ''), updated_at
FROM section_reviews
WHERE application_id = $1`

	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SectionReview
	for rows.Next() {
		var rv SectionReview
		if err := rows.Scan(&rv.ApplicationID, &rv.Section, &rv.Status, &rv.ReviewedBy, &rv.Note, &rv.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// DeleteByApplication removes all reviews for an application.
func (r *PGRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM section_reviews WHERE application_id = $1`, applicationID)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
