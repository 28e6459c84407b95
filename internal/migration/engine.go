package migration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/queue"
	"partner-portal-backend/internal/sharepoint"
	"partner-portal-backend/internal/shared/metrics"
	"partner-portal-backend/internal/shared/telemetry"
)

// TokenSource yields bearer tokens for the external document repository.
type TokenSource interface {
	Token(ctx context.Context, scope string) (string, time.Time, error)
}

// RepositoryClient is the document repository surface the engine needs.
type RepositoryClient interface {
	EnsureFolder(ctx context.Context, token, serverRelativePath string) error
	UploadFile(ctx context.Context, token, folderPath, fileName, contentType string, body io.Reader) (sharepoint.FileInfo, error)
}

// ErrMigrationIncomplete reports that at least one draft could not be moved
// this run. The application stays re-runnable and the job is rescheduled.
var ErrMigrationIncomplete = errors.New("migration run left unmigrated drafts")

// Engine moves an application's draft documents from scratch storage into the
// external repository. A run is idempotent: already-migrated files are skipped
// and re-running after any partial failure converges on the same final state.
type Engine struct {
	Apps   applications.Repo
	Drafts *drafts.Service
	Tokens TokenSource
	Client RepositoryClient
	Outbox OutboxRepo
	Queue  queue.Client // optional wake-up nudge

	LibraryRoot string
	Scope       string
	MaxAttempts int

	now func() time.Time
}

// NewEngine constructs an Engine with production defaults.
func NewEngine(apps applications.Repo, draftSvc *drafts.Service, tokens TokenSource, client RepositoryClient, outbox OutboxRepo, q queue.Client, libraryRoot, scope string, maxAttempts int) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Engine{
		Apps:        apps,
		Drafts:      draftSvc,
		Tokens:      tokens,
		Client:      client,
		Outbox:      outbox,
		Queue:       q,
		LibraryRoot: libraryRoot,
		Scope:       scope,
		MaxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Schedule records a durable migration job and kicks off an immediate attempt.
// The job row survives a crash; the inline goroutine and queue nudge are
// best-effort accelerators.
func (e *Engine) Schedule(ctx context.Context, invitationCode, applicationID string) error {
	now := e.clock()
	job := Job{
		ID:             uuid.NewString(),
		InvitationCode: invitationCode,
		ApplicationID:  applicationID,
		Status:         JobQueued,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
	if err := e.Outbox.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue migration job: %w", err)
	}

	if e.Queue != nil {
		if err := e.Queue.Send(ctx, queue.Message{
			JobID:          job.ID,
			InvitationCode: invitationCode,
			EnqueuedAt:     now.Format(time.RFC3339),
			Version:        1,
		}); err != nil {
			telemetry.Warn("migration.nudge_failed", map[string]any{
				"job_id":          job.ID,
				"invitation_code": invitationCode,
				"err":             err.Error(),
			})
		}
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := e.RunDue(runCtx, 1); err != nil {
			telemetry.Warn("migration.inline_run_failed", map[string]any{
				"invitation_code": invitationCode,
				"err":             err.Error(),
			})
		}
	}()
	return nil
}

// RunNow records a durable job and processes it inline. Used by the manual
// trigger: the caller sees the run's outcome, and a failed run still lands
// on the retry schedule instead of evaporating.
func (e *Engine) RunNow(ctx context.Context, invitationCode, applicationID string) error {
	now := e.clock()
	job := Job{
		ID:             uuid.NewString(),
		InvitationCode: invitationCode,
		ApplicationID:  applicationID,
		Status:         JobQueued,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
	if err := e.Outbox.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue migration job: %w", err)
	}
	return e.ProcessJob(ctx, job)
}

// RunDue claims and processes due jobs, returning how many were claimed.
func (e *Engine) RunDue(ctx context.Context, limit int) (int, error) {
	jobs, err := e.Outbox.ClaimDue(ctx, e.clock(), limit)
	if err != nil {
		return 0, fmt.Errorf("claim due jobs: %w", err)
	}
	for _, job := range jobs {
		e.ProcessJob(ctx, job)
	}
	return len(jobs), nil
}

// ProcessJob runs one claimed job and records its outcome: done on success,
// rescheduled with backoff on failure, permanently failed past MaxAttempts.
// It returns the run's error.
func (e *Engine) ProcessJob(ctx context.Context, job Job) error {
	err := e.Run(ctx, job.InvitationCode, job.ApplicationID)
	if err == nil {
		if mErr := e.Outbox.MarkDone(ctx, job.ID); mErr != nil {
			telemetry.Error("migration.job_mark_done_failed", map[string]any{
				"job_id": job.ID,
				"err":    mErr.Error(),
			})
		}
		return nil
	}

	attempts := job.Attempts + 1
	if attempts >= e.MaxAttempts {
		telemetry.Error("migration.job_exhausted", map[string]any{
			"job_id":          job.ID,
			"invitation_code": job.InvitationCode,
			"attempts":        attempts,
			"err":             err.Error(),
		})
		if mErr := e.Outbox.MarkFailed(ctx, job.ID, err.Error()); mErr != nil {
			telemetry.Error("migration.job_mark_failed_failed", map[string]any{
				"job_id": job.ID,
				"err":    mErr.Error(),
			})
		}
		return err
	}

	next := e.clock().Add(backoff(attempts))
	telemetry.Warn("migration.job_rescheduled", map[string]any{
		"job_id":          job.ID,
		"invitation_code": job.InvitationCode,
		"attempts":        attempts,
		"next_attempt_at": next.Format(time.RFC3339),
		"err":             err.Error(),
	})
	if mErr := e.Outbox.Reschedule(ctx, job.ID, attempts, next, err.Error()); mErr != nil {
		telemetry.Error("migration.job_reschedule_failed", map[string]any{
			"job_id": job.ID,
			"err":    mErr.Error(),
		})
	}
	return err
}

// Run migrates every outstanding draft for one application. Each file moves
// through a fixed sequence: record the final location, delete the scratch
// object, delete the draft row. One file's failure never blocks the others.
func (e *Engine) Run(ctx context.Context, invitationCode, applicationID string) error {
	metrics.IncMigrationRun()
	started := metrics.NowMillis()
	defer func() { metrics.ObserveMigrationDurationMs(metrics.NowMillis() - started) }()

	owner := uuid.NewString()
	acquired, err := e.Apps.AcquireMigrationLease(ctx, applicationID, owner, e.clock())
	if err != nil {
		return fmt.Errorf("acquire migration lease: %w", err)
	}
	if !acquired {
		telemetry.Info("migration.lease_busy", map[string]any{
			"invitation_code": invitationCode,
			"application_id":  applicationID,
		})
		return nil
	}
	defer func() {
		if rErr := e.Apps.ReleaseMigrationLease(context.WithoutCancel(ctx), applicationID, owner); rErr != nil {
			telemetry.Warn("migration.lease_release_failed", map[string]any{
				"application_id": applicationID,
				"err":            rErr.Error(),
			})
		}
	}()

	token, _, err := e.Tokens.Token(ctx, e.Scope)
	if err != nil {
		// The application stays submitted; the whole run retries later.
		return fmt.Errorf("acquire repository token: %w", err)
	}

	basePath, err := e.ensureBaseFolders(ctx, token, invitationCode)
	if err != nil {
		return err
	}

	outstanding, err := e.Drafts.List(ctx, invitationCode)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}

	ensured := make(map[string]bool)
	var failed int
	for _, d := range outstanding {
		if err := e.migrateOne(ctx, token, basePath, applicationID, d, ensured); err != nil {
			failed++
			telemetry.Warn("migration.file_failed", map[string]any{
				"invitation_code": invitationCode,
				"application_id":  applicationID,
				"draft_id":        d.ID,
				"field_name":      d.FieldName,
				"err":             err.Error(),
			})
		}
	}
	metrics.AddFilesMigrated(len(outstanding) - failed)

	// Status advances even when some files failed; the remaining drafts
	// stay behind for the next attempt.
	if err := e.Apps.UpdateStatus(ctx, applicationID, applications.StatusSubmitted, applications.StatusProcessing); err != nil {
		// Already past submitted: a previous run advanced it.
		if !errors.Is(err, applications.ErrNotFound) {
			return fmt.Errorf("advance application status: %w", err)
		}
	}

	if failed > 0 {
		metrics.IncMigrationRunFailed()
		return fmt.Errorf("%w: %d of %d failed", ErrMigrationIncomplete, failed, len(outstanding))
	}

	telemetry.Info("migration.run_complete", map[string]any{
		"invitation_code": invitationCode,
		"application_id":  applicationID,
		"migrated":        len(outstanding) - failed,
	})
	return nil
}

func (e *Engine) migrateOne(ctx context.Context, token, basePath, applicationID string, d drafts.DraftFile, ensured map[string]bool) error {
	exists, err := e.Apps.FileExists(ctx, applicationID, d.FieldName, d.OriginalFilename)
	if err != nil {
		return fmt.Errorf("check migrated file: %w", err)
	}
	if exists {
		// A prior run uploaded and recorded this file but crashed before
		// cleanup; finish the cleanup instead of uploading again.
		return e.Drafts.Discard(ctx, d)
	}

	sub := drafts.Subfolder(d.FieldName)
	folder := basePath + "/" + sub
	if !ensured[sub] {
		if err := e.Client.EnsureFolder(ctx, token, folder); err != nil {
			return fmt.Errorf("ensure folder %s: %w", folder, err)
		}
		ensured[sub] = true
	}

	rc, err := e.Drafts.Open(ctx, d)
	if err != nil {
		return fmt.Errorf("open scratch object %s: %w", d.ScratchKey, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read scratch object %s: %w", d.ScratchKey, err)
	}

	info, err := e.Client.UploadFile(ctx, token, folder, path.Base(d.ScratchKey), d.ContentType, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("upload %s: %w", d.OriginalFilename, err)
	}

	file := applications.ApplicationFile{
		ID:               uuid.NewString(),
		ApplicationID:    applicationID,
		FieldName:        d.FieldName,
		OriginalFilename: d.OriginalFilename,
		StoredFilename:   d.ScratchKey,
		FileSize:         d.SizeBytes,
		ContentType:      d.ContentType,
		ExternalURL:      info.ServerRelativeURL,
		ExternalID:       info.UniqueID,
		UploadedAt:       e.clock(),
	}
	if err := e.Apps.CreateFile(ctx, file); err != nil {
		return fmt.Errorf("record migrated file: %w", err)
	}

	if drafts.IsLogoField(d.FieldName) {
		if err := e.Apps.SetPartnerLogo(ctx, applicationID, info.ServerRelativeURL, info.UniqueID); err != nil {
			telemetry.Warn("migration.logo_cache_failed", map[string]any{
				"application_id": applicationID,
				"err":            err.Error(),
			})
		}
	}

	return e.Drafts.Discard(ctx, d)
}

// ensureBaseFolders creates the library path down to the partner's folder,
// one segment at a time, and returns the partner folder path.
func (e *Engine) ensureBaseFolders(ctx context.Context, token, invitationCode string) (string, error) {
	full := strings.Trim(e.LibraryRoot, "/") + "/" + strings.ToUpper(invitationCode)
	segments := strings.Split(full, "/")

	var current string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if current == "" {
			current = seg
		} else {
			current = current + "/" + seg
		}
		if err := e.Client.EnsureFolder(ctx, token, current); err != nil {
			return "", fmt.Errorf("ensure folder %s: %w", current, err)
		}
	}
	return current, nil
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now().UTC()
	}
	return time.Now().UTC()
}

var _ applications.MigrationScheduler = (*Engine)(nil)
