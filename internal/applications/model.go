package applications

import "time"

// Application statuses. An application never regresses except via hard delete:
// submitted -> processing (migration engine) -> completed (review approve-all),
// or rejected by staff.
const (
	StatusDraft      = "draft"
	StatusSubmitted  = "submitted"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

// Application is the durable record of one submission, flattened from the
// multi-step form payload.
type Application struct {
	ID             string
	InvitationCode string
	Status         string
	SubmittedAt    *time.Time

	// Company
	CompanyName        string
	TradingName        string
	RegistrationNumber string
	VATNumber          string
	Website            string
	YearEstablished    int
	EmployeeCount      int
	AddressLine1       string
	AddressLine2       string
	City               string
	Postcode           string
	Country            string
	RegionsCovered     string

	// Contacts
	ContactName           string
	ContactTitle          string
	ContactEmail          string
	ContactPhone          string
	SecondaryContactName  string
	SecondaryContactEmail string
	SecondaryContactPhone string

	// Compliance
	HealthSafetyPolicy  bool
	EnvironmentalPolicy bool
	QualityPolicy       bool
	ModernSlaveryPolicy bool
	GDPRCompliant       bool
	AccreditationBodies string
	CertifiedInstaller  bool
	CertificationNumber string

	// Insurance
	PublicLiabilityInsurer         string
	PublicLiabilityPolicyNumber    string
	PublicLiabilityCoverGBP        int64
	PublicLiabilityExpiry          string
	EmployersLiabilityInsurer      string
	EmployersLiabilityPolicyNumber string
	EmployersLiabilityCoverGBP     int64
	EmployersLiabilityExpiry       string
	ProfessionalIndemnityCover     bool

	// Financial
	BankName             string
	AccountName          string
	SortCode             string
	AccountNumberLast4   string
	PaymentTermsDays     int
	AnnualTurnoverGBP    int64
	CreditLimitRequested int64

	// Agreements
	TermsAccepted          bool
	CodeOfConductAccepted  bool
	DataSharingAccepted    bool
	MarketingOptIn         bool
	SignatoryName          string
	SignatoryRole          string

	// Cached from the migrated logo file for fast header rendering.
	PartnerLogoURL string
	PartnerLogoID  string

	CreatedAt time.Time
}

// ApplicationFile records one migrated document's final location in the
// external repository. Immutable after creation except administrative delete.
type ApplicationFile struct {
	ID               string
	ApplicationID    string
	FieldName        string
	OriginalFilename string
	StoredFilename   string // scratch key retained for traceability
	FileSize         int64
	ContentType      string
	ExternalURL      string
	ExternalID       string
	UploadedAt       time.Time
}
