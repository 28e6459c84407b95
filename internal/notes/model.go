package notes

import "time"

// Note is one append-only staff annotation on an application.
type Note struct {
	ID            string
	ApplicationID string
	Author        string
	Text          string
	CreatedAt     time.Time
}
