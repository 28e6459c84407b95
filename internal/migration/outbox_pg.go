package migration

import (
	"context"
	"database/sql"
	"time"
)

// PGOutbox implements OutboxRepo using Postgres.
type PGOutbox struct {
	DB *sql.DB
}

// Enqueue inserts a queued job.
func (r *PGOutbox) Enqueue(ctx context.Context, job Job) error {
	const query = `
INSERT INTO migration_jobs (
    id, invitation_code, application_id, status, attempts, next_attempt_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		job.ID,
		job.InvitationCode,
		job.ApplicationID,
		JobQueued,
		job.Attempts,
		job.NextAttemptAt,
		job.CreatedAt,
	)
	return err
}

// ClaimDue marks due queued jobs as running and returns them. SKIP LOCKED
// keeps concurrent workers from claiming the same job.
func (r *PGOutbox) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	const query = `
UPDATE migration_jobs
SET status = 'running', updated_at = $1
WHERE id IN (
    SELECT id FROM migration_jobs
    WHERE status = 'queued' AND next_attempt_at <= $1
    ORDER BY next_attempt_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING id, invitation_code, application_id, status, attempts, next_attempt_at, COALESCE(last_error, ''), created_at, updated_at`

	rows, err := r.DB.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID,
			&j.InvitationCode,
			&j.ApplicationID,
			&j.Status,
			&j.Attempts,
			&j.NextAttemptAt,
			&j.LastError,
			&j.CreatedAt,
			&j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// MarkDone completes a job.
func (r *PGOutbox) MarkDone(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, JobDone, "")
}

// Reschedule returns a job to the queue for a later attempt.
func (r *PGOutbox) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	const query = `
UPDATE migration_jobs
SET status = 'queued', attempts = $1, next_attempt_at = $2, last_error = $3, updated_at = now()
WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, attempts, nextAttemptAt, nullIfEmpty(lastError), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkFailed permanently fails a job.
func (r *PGOutbox) MarkFailed(ctx context.Context, id, lastError string) error {
	return r.setStatus(ctx, id, JobFailed, lastError)
}

func (r *PGOutbox) setStatus(ctx context.Context, id, status, lastError string) error {
	const query = `
UPDATE migration_jobs
SET status = $1, last_error = $2, updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, status, nullIfEmpty(lastError), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ OutboxRepo = (*PGOutbox)(nil)
