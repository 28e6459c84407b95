package migration

import (
	"context"
	"errors"
	"time"
)

// Job statuses.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// ErrJobNotFound indicates no outbox job matched.
var ErrJobNotFound = errors.New("migration job not found")

// Job is one durable migration request. The outbox is authoritative: the SQS
// nudge only wakes the worker, and a lost nudge is recovered by polling.
type Job struct {
	ID             string
	InvitationCode string
	ApplicationID  string
	Status         string
	Attempts       int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OutboxRepo defines persistence for migration jobs.
type OutboxRepo interface {
	Enqueue(ctx context.Context, job Job) error
	// ClaimDue atomically marks up to limit due queued jobs as running and
	// returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	MarkDone(ctx context.Context, id string) error
	// Reschedule returns a running job to queued with its next attempt time.
	Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id, lastError string) error
}

// backoff returns the delay before the given (1-based) attempt is retried:
// 30s, 1m, 2m, ... capped at one hour.
func backoff(attempts int) time.Duration {
	d := 30 * time.Second
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	return d
}
