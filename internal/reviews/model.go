package reviews

import "time"

// Review statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Sections lists the fixed review sections in display order.
var Sections = []string{
	"company",
	"contacts",
	"compliance",
	"insurance",
	"financial",
	"agreements",
	"documents",
}

// SectionReview is the back-office decision for one section of an
// application. One row per (application, section); re-reviewing replaces it.
type SectionReview struct {
	ApplicationID string
	Section       string
	Status        string
	Note          string
	ReviewedBy    string
	ReviewedAt    time.Time
}

// ValidSection reports whether s is one of the fixed sections.
func ValidSection(s string) bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a settable review status.
func ValidStatus(s string) bool {
	return s == StatusApproved || s == StatusRejected || s == StatusPending
}
