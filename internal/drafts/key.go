package drafts

import (
	"fmt"
	"strings"
	"time"

	"partner-portal-backend/internal/shared/util"
)

// Destination subfolders in the external document library. Drafts are keyed
// so the destination layout can be derived from the scratch key alone.
const (
	SubfolderLogos        = "logos"
	SubfolderCertificates = "certificates"
	SubfolderFinancial    = "financial"
	SubfolderDocuments    = "documents"
)

const scratchRoot = "draft/partners"

// Subfolder classifies a form field name into its destination subfolder.
func Subfolder(fieldName string) string {
	f := strings.ToLower(fieldName)
	switch {
	case strings.Contains(f, "logo"):
		return SubfolderLogos
	case strings.Contains(f, "certificate"), strings.Contains(f, "insurance"):
		return SubfolderCertificates
	case strings.Contains(f, "financial"), strings.Contains(f, "bank"), strings.Contains(f, "tax"):
		return SubfolderFinancial
	default:
		return SubfolderDocuments
	}
}

// IsLogoField reports whether a field's file should be cached on the
// application row for header rendering.
func IsLogoField(fieldName string) bool {
	return strings.Contains(strings.ToLower(fieldName), "logo")
}

// ScratchKey builds the scratch object key for an upload:
// draft/partners/<CODE>/<subfolder>/<ISO-date>_<field>_<filename>.
// Every segment is sanitized to [A-Za-z0-9_.-].
func ScratchKey(invitationCode, fieldName, filename string, now time.Time) string {
	code := strings.ToUpper(util.SanitizeSegment(invitationCode))
	field := util.SanitizeSegment(fieldName)
	name := util.SanitizeSegment(filename)
	date := now.UTC().Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s/%s_%s_%s", scratchRoot, code, Subfolder(fieldName), date, field, name)
}
