package applications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/shared/metrics"
	"partner-portal-backend/internal/shared/telemetry"
)

// MigrationScheduler enqueues a migration run for a freshly submitted
// application. Scheduling must not block on migration completion.
type MigrationScheduler interface {
	Schedule(ctx context.Context, invitationCode, applicationID string) error
}

// Service contains business logic for submissions and status reads.
type Service struct {
	Repo        Repo
	Drafts      drafts.Repo
	Invitations invitations.Repo
	Scheduler   MigrationScheduler
}

// Submit validates and flattens the form payload, creates the application
// record with status submitted, and schedules the migration run. It returns
// as soon as the record is durable; document migration converges in the
// background.
func (s *Service) Submit(ctx context.Context, payload SubmissionPayload) (Application, error) {
	app := Flatten(payload)
	if len(app.InvitationCode) != invitations.CodeLength {
		return Application{}, ErrInvalidInput
	}

	inv, err := s.Invitations.GetByCode(ctx, app.InvitationCode)
	if err != nil {
		return Application{}, err
	}
	if !inv.Usable() {
		return Application{}, drafts.ErrInvitationNotUsable
	}

	now := time.Now().UTC()
	app.ID = uuid.NewString()
	app.Status = StatusSubmitted
	app.SubmittedAt = &now
	app.CreatedAt = now

	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}
	metrics.IncSubmissionCreated()

	// The submission is already durable; a scheduling failure is recovered
	// by the manual migration endpoint or the worker sweep.
	if s.Scheduler != nil {
		if err := s.Scheduler.Schedule(ctx, app.InvitationCode, app.ID); err != nil {
			telemetry.Error("applications.submit.schedule_failed", map[string]any{
				"invitation_code": app.InvitationCode,
				"application_id":  app.ID,
				"err":             err.Error(),
			})
		}
	}

	return app, nil
}

// StatusReport bundles everything staff need to see where a submission stands.
type StatusReport struct {
	Application   Application
	Outstanding   []drafts.DraftFile
	MigratedFiles []ApplicationFile
}

// Status returns the authoritative application for an invitation code along
// with its outstanding drafts and migrated files.
func (s *Service) Status(ctx context.Context, invitationCode string) (StatusReport, error) {
	if invitationCode == "" {
		return StatusReport{}, ErrInvalidInput
	}

	app, err := s.Repo.GetLatestByInvitation(ctx, invitationCode)
	if err != nil {
		return StatusReport{}, err
	}

	outstanding, err := s.Drafts.ListByInvitation(ctx, invitationCode)
	if err != nil {
		return StatusReport{}, err
	}

	migrated, err := s.Repo.ListFiles(ctx, app.ID)
	if err != nil {
		return StatusReport{}, err
	}

	return StatusReport{
		Application:   app,
		Outstanding:   outstanding,
		MigratedFiles: migrated,
	}, nil
}

// Resolve finds an application either by id or by invitation code.
func (s *Service) Resolve(ctx context.Context, idOrCode string) (Application, error) {
	if idOrCode == "" {
		return Application{}, ErrInvalidInput
	}
	if _, err := uuid.Parse(idOrCode); err == nil {
		return s.Repo.GetByID(ctx, idOrCode)
	}
	return s.Repo.GetLatestByInvitation(ctx, strings.ToUpper(idOrCode))
}
