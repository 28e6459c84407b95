package invitations

import "time"

const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusExpired = "expired"
)

// CodeLength is the fixed length of an invitation code.
const CodeLength = 8

// Invitation gates who may start or resume a submission. Invitations are
// created by the back-office tooling; this service only reads them.
type Invitation struct {
	Code         string
	CompanyName  string
	ContactEmail string
	Status       string
	CreatedAt    time.Time
}

// Usable reports whether the invitation may still upload or submit.
func (i Invitation) Usable() bool {
	return i.Status == StatusActive
}
