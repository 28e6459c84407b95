package applications

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no application matched.
	ErrNotFound = errors.New("application not found")
	// ErrInvalidInput indicates a malformed submission.
	ErrInvalidInput = errors.New("invalid input")
)

// LeaseTTL bounds how long a migration lease is honored; a crashed run's
// lease expires after this and the next trigger can proceed.
const LeaseTTL = 10 * time.Minute

// Repo defines persistence operations for applications and their files.
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	// GetLatestByInvitation returns the most recent non-draft application for
	// an invitation code; that row is authoritative for migration.
	GetLatestByInvitation(ctx context.Context, invitationCode string) (Application, error)
	// UpdateStatus advances status only when the current status matches from.
	// ErrNotFound means no row was in the expected state.
	UpdateStatus(ctx context.Context, id, from, to string) error
	SetStatus(ctx context.Context, id, to string) error
	SetPartnerLogo(ctx context.Context, id, url, externalID string) error
	Delete(ctx context.Context, id string) error

	// Migration lease: at most one live owner per application.
	AcquireMigrationLease(ctx context.Context, id, owner string, now time.Time) (bool, error)
	ReleaseMigrationLease(ctx context.Context, id, owner string) error

	CreateFile(ctx context.Context, file ApplicationFile) error
	ListFiles(ctx context.Context, applicationID string) ([]ApplicationFile, error)
	FileExists(ctx context.Context, applicationID, fieldName, originalFilename string) (bool, error)
}
