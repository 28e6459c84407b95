package reviews

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/notify"
	"partner-portal-backend/internal/shared/storage/object/local"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) wait(t *testing.T, want int) []notify.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		n := len(d.events)
		events := append([]notify.Event(nil), d.events...)
		d.mu.Unlock()
		if n >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", want)
	return nil
}

const testCode = "ABCD1234"

func newService(t *testing.T) (*Service, *applications.MemoryRepo, *recordingDispatcher, applications.Application) {
	t.Helper()

	invRepo := invitations.NewMemoryRepo()
	invRepo.Seed(invitations.Invitation{
		Code:        testCode,
		CompanyName: "Acme Solar",
		Status:      invitations.StatusActive,
		CreatedAt:   time.Now().UTC(),
	})

	apps := applications.NewMemoryRepo()
	app := applications.Application{
		ID:             "11111111-2222-3333-4444-555555555555",
		InvitationCode: testCode,
		CompanyName:    "Acme Solar",
		Status:         applications.StatusProcessing,
		CreatedAt:      time.Now().UTC(),
	}
	if err := apps.Create(context.Background(), app); err != nil {
		t.Fatalf("seed application: %v", err)
	}

	dispatcher := &recordingDispatcher{}
	svc := &Service{
		Repo: NewMemoryRepo(),
		Apps: apps,
		Drafts: &drafts.Service{
			Store:       local.New(t.TempDir()),
			Repo:        drafts.NewMemoryRepo(),
			Invitations: invRepo,
		},
		Dispatcher: dispatcher,
	}
	return svc, apps, dispatcher, app
}

func TestSetSectionStatusUpserts(t *testing.T) {
	svc, _, dispatcher, app := newService(t)
	ctx := context.Background()

	if _, err := svc.SetSectionStatus(ctx, app, "financial", StatusRejected, "missing bank letter", "reviewer-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// Reversing a decision replaces it.
	if _, err := svc.SetSectionStatus(ctx, app, "financial", StatusApproved, "", "reviewer-2"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stored, err := svc.List(ctx, app.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var financial SectionReview
	for _, rv := range stored {
		if rv.Section == "financial" {
			financial = rv
		}
	}
	if financial.Status != StatusApproved || financial.ReviewedBy != "reviewer-2" {
		t.Fatalf("expected replaced review, got %+v", financial)
	}

	// Dispatch is async; both decisions must eventually arrive.
	events := dispatcher.wait(t, 2)
	byStatus := make(map[string]notify.Event, len(events))
	for _, e := range events {
		byStatus[e.Status] = e
	}
	if _, ok := byStatus[StatusApproved]; !ok {
		t.Fatalf("approval not dispatched: %+v", events)
	}
	rejected, ok := byStatus[StatusRejected]
	if !ok || rejected.Note != "missing bank letter" {
		t.Fatalf("rejection with note not dispatched: %+v", events)
	}
}

func TestSetSectionStatusRejectsUnknownSection(t *testing.T) {
	svc, _, _, app := newService(t)

	_, err := svc.SetSectionStatus(context.Background(), app, "mystery", StatusApproved, "", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListFillsPendingSections(t *testing.T) {
	svc, _, _, app := newService(t)
	ctx := context.Background()

	if _, err := svc.SetSectionStatus(ctx, app, "company", StatusApproved, "", "reviewer-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stored, err := svc.List(ctx, app.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != len(Sections) {
		t.Fatalf("expected %d sections, got %d", len(Sections), len(stored))
	}
	var pending int
	for _, rv := range stored {
		if rv.Status == StatusPending {
			pending++
		}
	}
	if pending != len(Sections)-1 {
		t.Fatalf("expected %d pending sections, got %d", len(Sections)-1, pending)
	}
}

func TestApproveAllCompletesApplication(t *testing.T) {
	svc, apps, dispatcher, app := newService(t)
	ctx := context.Background()

	if err := svc.ApproveAll(ctx, app, "reviewer-1", "all documents verified"); err != nil {
		t.Fatalf("approve all: %v", err)
	}

	stored, _ := svc.List(ctx, app.ID)
	for _, rv := range stored {
		if rv.Status != StatusApproved {
			t.Fatalf("section %s not approved: %+v", rv.Section, rv)
		}
		if rv.Note != "all documents verified" {
			t.Fatalf("section %s missing approval note: %+v", rv.Section, rv)
		}
	}

	got, err := apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Status != applications.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}

	events := dispatcher.wait(t, 1)
	last := events[len(events)-1]
	if last.Status != applications.StatusCompleted {
		t.Fatalf("completion not dispatched: %+v", events)
	}
	if last.Note != "all documents verified" {
		t.Fatalf("completion event missing note: %+v", last)
	}
}

func TestDeleteApplicationCascades(t *testing.T) {
	svc, apps, _, app := newService(t)
	ctx := context.Background()

	if _, err := svc.Drafts.Put(ctx, testCode, "companyLogo", "logo.png", "image/png", strings.NewReader("png")); err != nil {
		t.Fatalf("put draft: %v", err)
	}
	if _, err := svc.SetSectionStatus(ctx, app, "company", StatusApproved, "", ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	if err := svc.DeleteApplication(ctx, app); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := apps.GetByID(ctx, app.ID); !errors.Is(err, applications.ErrNotFound) {
		t.Fatalf("application not deleted: %v", err)
	}
	remaining, _ := svc.Drafts.List(ctx, testCode)
	if len(remaining) != 0 {
		t.Fatalf("scratch drafts not cleaned: %d left", len(remaining))
	}
	stored, _ := svc.Repo.ListByApplication(ctx, app.ID)
	if len(stored) != 0 {
		t.Fatalf("reviews not deleted: %d left", len(stored))
	}
}
