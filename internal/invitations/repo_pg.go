package invitations

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByCode returns an invitation by its code.
func (r *PGRepo) GetByCode(ctx context.Context, code string) (Invitation, error) {
	const query = `
SELECT code, company_name, contact_email, status, created_at
FROM invitations
WHERE code = $1`
	var inv Invitation
	err := r.DB.QueryRowContext(ctx, query, code).Scan(
		&inv.Code,
		&inv.CompanyName,
		&inv.ContactEmail,
		&inv.Status,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invitation{}, ErrNotFound
		}
		return Invitation{}, err
	}
	return inv, nil
}

var _ Repo = (*PGRepo)(nil)
