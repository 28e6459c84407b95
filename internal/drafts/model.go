package drafts

import "time"

// DraftFile is the metadata row for one scratch object uploaded before
// submission. The payload bytes live in the object store under ScratchKey;
// the row is deleted when migration moves the file out.
type DraftFile struct {
	ID               string
	InvitationCode   string
	FieldName        string
	ScratchKey       string
	OriginalFilename string
	ContentType      string
	SizeBytes        int64
	UploadedAt       time.Time
}
