package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	apps  map[string]Application
	files map[string][]ApplicationFile // applicationID -> files

	leaseOwner map[string]string
	leaseAt    map[string]time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		apps:       make(map[string]Application),
		files:      make(map[string][]ApplicationFile),
		leaseOwner: make(map[string]string),
		leaseAt:    make(map[string]time.Time),
	}
}

// Create stores an application row.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app
	return nil
}

// GetByID fetches an application by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// GetLatestByInvitation returns the most recent non-draft application.
func (r *MemoryRepo) GetLatestByInvitation(ctx context.Context, invitationCode string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Application
	for _, app := range r.apps {
		if app.InvitationCode == invitationCode && app.Status != StatusDraft {
			candidates = append(candidates, app)
		}
	}
	if len(candidates) == 0 {
		return Application{}, ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID > candidates[j].ID
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return candidates[0], nil
}

// UpdateStatus advances status only from the expected current status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok || app.Status != from {
		return ErrNotFound
	}
	app.Status = to
	r.apps[id] = app
	return nil
}

// SetStatus forces the status unconditionally.
func (r *MemoryRepo) SetStatus(ctx context.Context, id, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Status = to
	r.apps[id] = app
	return nil
}

// SetPartnerLogo caches the migrated logo's external location.
func (r *MemoryRepo) SetPartnerLogo(ctx context.Context, id, url, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.PartnerLogoURL = url
	app.PartnerLogoID = externalID
	r.apps[id] = app
	return nil
}

// Delete removes the application and its files.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return ErrNotFound
	}
	delete(r.apps, id)
	delete(r.files, id)
	delete(r.leaseOwner, id)
	delete(r.leaseAt, id)
	return nil
}

// AcquireMigrationLease claims the migration lease unless freshly held.
func (r *MemoryRepo) AcquireMigrationLease(ctx context.Context, id, owner string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return false, nil
	}
	if current, held := r.leaseOwner[id]; held && current != "" {
		if r.leaseAt[id].After(now.Add(-LeaseTTL)) {
			return false, nil
		}
	}
	r.leaseOwner[id] = owner
	r.leaseAt[id] = now
	return true, nil
}

// ReleaseMigrationLease clears the lease if still held by owner.
func (r *MemoryRepo) ReleaseMigrationLease(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.leaseOwner[id] == owner {
		delete(r.leaseOwner, id)
		delete(r.leaseAt, id)
	}
	return nil
}

// CreateFile records a migrated file.
func (r *MemoryRepo) CreateFile(ctx context.Context, file ApplicationFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[file.ApplicationID] = append(r.files[file.ApplicationID], file)
	return nil
}

// ListFiles returns migrated files for an application.
func (r *MemoryRepo) ListFiles(ctx context.Context, applicationID string) ([]ApplicationFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := r.files[applicationID]
	out := make([]ApplicationFile, len(files))
	copy(out, files)
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

// FileExists reports whether a migrated record already exists for a slot.
func (r *MemoryRepo) FileExists(ctx context.Context, applicationID, fieldName, originalFilename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files[applicationID] {
		if f.FieldName == fieldName && f.OriginalFilename == originalFilename {
			return true, nil
		}
	}
	return false, nil
}

var _ Repo = (*MemoryRepo)(nil)
