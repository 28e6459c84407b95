package drafts

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new draft file row.
func (r *PGRepo) Create(ctx context.Context, draft DraftFile) error {
	const query = `
INSERT INTO draft_files (
    id,
    invitation_code,
    field_name,
    scratch_key,
    original_filename,
    content_type,
    size_bytes,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		draft.ID,
		draft.InvitationCode,
		draft.FieldName,
		draft.ScratchKey,
		draft.OriginalFilename,
		nullString(draft.ContentType),
		draft.SizeBytes,
		draft.UploadedAt,
	)
	return err
}

// ListByInvitation returns all outstanding draft files for an invitation,
// oldest first so migration processes uploads in arrival order.
func (r *PGRepo) ListByInvitation(ctx context.Context, invitationCode string) ([]DraftFile, error) {
	const query = `
SELECT id, invitation_code, field_name, scratch_key, original_filename, content_type, size_bytes, uploaded_at
FROM draft_files
WHERE invitation_code = $1
ORDER BY uploaded_at, id`

	rows, err := r.DB.QueryContext(ctx, query, invitationCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DraftFile
	for rows.Next() {
		var d DraftFile
		var contentType sql.NullString
		if err := rows.Scan(
			&d.ID,
			&d.InvitationCode,
			&d.FieldName,
			&d.ScratchKey,
			&d.OriginalFilename,
			&contentType,
			&d.SizeBytes,
			&d.UploadedAt,
		); err != nil {
			return nil, err
		}
		if contentType.Valid {
			d.ContentType = contentType.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteByID removes one draft file row.
func (r *PGRepo) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM draft_files WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySlot removes prior rows for the same (invitation, field, filename)
// slot, returning them for scratch-object cleanup.
func (r *PGRepo) DeleteBySlot(ctx context.Context, invitationCode, fieldName, originalFilename string) ([]DraftFile, error) {
	const query = `
DELETE FROM draft_files
WHERE invitation_code = $1 AND field_name = $2 AND original_filename = $3
RETURNING id, invitation_code, field_name, scratch_key, original_filename, content_type, size_bytes, uploaded_at`

	rows, err := r.DB.QueryContext(ctx, query, invitationCode, fieldName, originalFilename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DraftFile
	for rows.Next() {
		var d DraftFile
		var contentType sql.NullString
		if err := rows.Scan(
			&d.ID,
			&d.InvitationCode,
			&d.FieldName,
			&d.ScratchKey,
			&d.OriginalFilename,
			&contentType,
			&d.SizeBytes,
			&d.UploadedAt,
		); err != nil {
			return nil, err
		}
		if contentType.Valid {
			d.ContentType = contentType.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
