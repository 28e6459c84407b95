package drafts

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	draft := DraftFile{
		ID:               "draft-1",
		InvitationCode:   "ABCD1234",
		FieldName:        "companyLogo",
		ScratchKey:       "draft/partners/ABCD1234/logos/2026-03-14_companyLogo_logo.png",
		OriginalFilename: "logo.png",
		ContentType:      "image/png",
		SizeBytes:        1024,
		UploadedAt:       time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO draft_files").
		WithArgs(
			draft.ID,
			draft.InvitationCode,
			draft.FieldName,
			draft.ScratchKey,
			draft.OriginalFilename,
			sqlmock.AnyArg(), // content_type
			draft.SizeBytes,
			draft.UploadedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), draft); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteBySlotReturnsRemovedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	uploadedAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "invitation_code", "field_name", "scratch_key",
		"original_filename", "content_type", "size_bytes", "uploaded_at",
	}).AddRow(
		"draft-1", "ABCD1234", "companyLogo",
		"draft/partners/ABCD1234/logos/2026-03-13_companyLogo_logo.png",
		"logo.png", "image/png", int64(512), uploadedAt,
	)

	mock.ExpectQuery("DELETE FROM draft_files").
		WithArgs("ABCD1234", "companyLogo", "logo.png").
		WillReturnRows(rows)

	removed, err := repo.DeleteBySlot(context.Background(), "ABCD1234", "companyLogo", "logo.png")
	if err != nil {
		t.Fatalf("DeleteBySlot: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected 1 removed row, got %d", len(removed))
	}
	if removed[0].ScratchKey != "draft/partners/ABCD1234/logos/2026-03-13_companyLogo_logo.png" {
		t.Fatalf("scratch key: %q", removed[0].ScratchKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM draft_files").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
