package reviews

import (
	"context"
	"fmt"
	"time"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/notify"
	"partner-portal-backend/internal/shared/telemetry"
)

// Service contains back-office review logic.
type Service struct {
	Repo       Repo
	Apps       applications.Repo
	Drafts     *drafts.Service
	Dispatcher notify.Dispatcher
}

// SetSectionStatus records a decision for one section. Re-reviewing a
// section replaces the previous decision in either direction.
func (s *Service) SetSectionStatus(ctx context.Context, app applications.Application, section, status, note, reviewer string) (SectionReview, error) {
	if !ValidSection(section) {
		return SectionReview{}, fmt.Errorf("%w: unknown section %q", ErrInvalidInput, section)
	}
	if !ValidStatus(status) {
		return SectionReview{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	review := SectionReview{
		ApplicationID: app.ID,
		Section:       section,
		Status:        status,
		Note:          note,
		ReviewedBy:    reviewer,
		ReviewedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Upsert(ctx, review); err != nil {
		return SectionReview{}, err
	}

	s.dispatch(ctx, app, section, status, note)
	return review, nil
}

// ApproveAll marks every section approved and promotes the application to
// completed. Completed is terminal.
func (s *Service) ApproveAll(ctx context.Context, app applications.Application, reviewer, note string) error {
	now := time.Now().UTC()
	for _, section := range Sections {
		review := SectionReview{
			ApplicationID: app.ID,
			Section:       section,
			Status:        StatusApproved,
			Note:          note,
			ReviewedBy:    reviewer,
			ReviewedAt:    now,
		}
		if err := s.Repo.Upsert(ctx, review); err != nil {
			return err
		}
	}

	if err := s.Apps.SetStatus(ctx, app.ID, applications.StatusCompleted); err != nil {
		return err
	}

	s.dispatch(ctx, app, "", applications.StatusCompleted, note)
	return nil
}

// List returns the review state of every section, filling pending entries
// for sections never reviewed.
func (s *Service) List(ctx context.Context, applicationID string) ([]SectionReview, error) {
	stored, err := s.Repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]SectionReview, len(stored))
	for _, rv := range stored {
		byName[rv.Section] = rv
	}

	out := make([]SectionReview, 0, len(Sections))
	for _, section := range Sections {
		if rv, ok := byName[section]; ok {
			out = append(out, rv)
			continue
		}
		out = append(out, SectionReview{
			ApplicationID: applicationID,
			Section:       section,
			Status:        StatusPending,
		})
	}
	return out, nil
}

// DeleteApplication hard-deletes an application with its reviews, notes,
// files, and outstanding scratch objects. Scratch cleanup is best-effort.
func (s *Service) DeleteApplication(ctx context.Context, app applications.Application) error {
	outstanding, err := s.Drafts.List(ctx, app.InvitationCode)
	if err != nil {
		return err
	}
	for _, d := range outstanding {
		if err := s.Drafts.Discard(ctx, d); err != nil {
			telemetry.Warn("reviews.delete.scratch_cleanup_failed", map[string]any{
				"invitation_code": app.InvitationCode,
				"draft_id":        d.ID,
				"err":             err.Error(),
			})
		}
	}

	// Reviews, notes and files cascade off the application row in Postgres;
	// the explicit delete keeps the memory repos consistent too.
	if err := s.Repo.DeleteByApplication(ctx, app.ID); err != nil {
		return err
	}
	if err := s.Apps.Delete(ctx, app.ID); err != nil {
		return err
	}

	s.dispatch(ctx, app, "", "deleted", "")
	return nil
}

// dispatch sends a notification without letting delivery failures surface.
func (s *Service) dispatch(ctx context.Context, app applications.Application, section, status, note string) {
	if s.Dispatcher == nil {
		return
	}
	event := notify.Event{
		ApplicationID:  app.ID,
		InvitationCode: app.InvitationCode,
		CompanyName:    app.CompanyName,
		Section:        section,
		Status:         status,
		Note:           note,
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := s.Dispatcher.Dispatch(sendCtx, event); err != nil {
			telemetry.Warn("reviews.notify_failed", map[string]any{
				"application_id": app.ID,
				"section":        section,
				"status":         status,
				"err":            err.Error(),
			})
		}
	}()
}
