package notes

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a note row.
func (r *PGRepo) Create(ctx context.Context, note Note) error {
	const query = `
INSERT INTO application_notes (id, application_id, author, text, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctx, query, note.ID, note.ApplicationID, note.Author, note.Text, note.CreatedAt)
	return err
}

// ListByApplication returns notes oldest first.
func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]Note, error) {
	const query = `
SELECT id, application_id, author, text, created_at
FROM application_notes
WHERE application_id = $1
ORDER BY created_at, id`

	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.ApplicationID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
