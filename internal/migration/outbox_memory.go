package migration

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryOutbox is an in-memory OutboxRepo for dev and tests.
type MemoryOutbox struct {
	mu   sync.Mutex
	jobs map[string]Job
}

// NewMemoryOutbox constructs a MemoryOutbox.
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{jobs: make(map[string]Job)}
}

// Enqueue inserts a queued job.
func (r *MemoryOutbox) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job.Status = JobQueued
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.ID] = job
	return nil
}

// ClaimDue marks due queued jobs as running and returns them.
func (r *MemoryOutbox) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []Job
	for _, j := range r.jobs {
		if j.Status == JobQueued && !j.NextAttemptAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = JobRunning
		due[i].UpdatedAt = now
		r.jobs[due[i].ID] = due[i]
	}
	return due, nil
}

// MarkDone completes a job.
func (r *MemoryOutbox) MarkDone(ctx context.Context, id string) error {
	return r.update(ctx, id, func(j *Job) {
		j.Status = JobDone
		j.LastError = ""
	})
}

// Reschedule returns a job to the queue for a later attempt.
func (r *MemoryOutbox) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.update(ctx, id, func(j *Job) {
		j.Status = JobQueued
		j.Attempts = attempts
		j.NextAttemptAt = nextAttemptAt
		j.LastError = lastError
	})
}

// MarkFailed permanently fails a job.
func (r *MemoryOutbox) MarkFailed(ctx context.Context, id, lastError string) error {
	return r.update(ctx, id, func(j *Job) {
		j.Status = JobFailed
		j.LastError = lastError
	})
}

// Get returns a job by id. Test helper.
func (r *MemoryOutbox) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}

func (r *MemoryOutbox) update(ctx context.Context, id string, fn func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(&j)
	j.UpdatedAt = time.Now().UTC()
	r.jobs[id] = j
	return nil
}

var _ OutboxRepo = (*MemoryOutbox)(nil)
