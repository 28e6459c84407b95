package applications

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexBool is a boolean that tolerates the form client's loose encodings:
// true, "true", 1 and "1" are true; false, "false", 0, "0", null and absence
// are false. Anything else is a decode error rather than a silent default.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "true", `"true"`, "1", `"1"`:
		*b = true
		return nil
	case "false", `"false"`, "0", `"0"`, "null", `""`:
		*b = false
		return nil
	}
	return &json.UnmarshalTypeError{Value: string(trimmed), Type: nil}
}

// FlexInt is an integer that accepts either a JSON number or a numeric
// string; empty string and null decode to zero.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" || string(trimmed) == `""` {
		*n = 0
		return nil
	}
	raw := strings.Trim(string(trimmed), `"`)
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*n = FlexInt(val)
	return nil
}

// SubmissionPayload is the nested multi-step form body. Each step is a typed
// struct; missing fields take the step's zero values, which is the explicit
// default policy: strings default to "", numbers to 0, booleans to false.
type SubmissionPayload struct {
	InvitationCode string          `json:"invitationCode"`
	Company        CompanyStep     `json:"company"`
	Contacts       ContactsStep    `json:"contacts"`
	Compliance     ComplianceStep  `json:"compliance"`
	Insurance      InsuranceStep   `json:"insurance"`
	Financial      FinancialStep   `json:"financial"`
	Agreements     AgreementsStep  `json:"agreements"`
}

// CompanyStep carries the company identity and address fields.
type CompanyStep struct {
	CompanyName        string  `json:"companyName"`
	TradingName        string  `json:"tradingName"`
	RegistrationNumber string  `json:"registrationNumber"`
	VATNumber          string  `json:"vatNumber"`
	Website            string  `json:"website"`
	YearEstablished    FlexInt `json:"yearEstablished"`
	EmployeeCount      FlexInt `json:"employeeCount"`
	AddressLine1       string  `json:"addressLine1"`
	AddressLine2       string  `json:"addressLine2"`
	City               string  `json:"city"`
	Postcode           string  `json:"postcode"`
	Country            string  `json:"country"`
	RegionsCovered     string  `json:"regionsCovered"`
}

// ContactsStep carries primary and secondary contact details.
type ContactsStep struct {
	ContactName           string `json:"contactName"`
	ContactTitle          string `json:"contactTitle"`
	ContactEmail          string `json:"contactEmail"`
	ContactPhone          string `json:"contactPhone"`
	SecondaryContactName  string `json:"secondaryContactName"`
	SecondaryContactEmail string `json:"secondaryContactEmail"`
	SecondaryContactPhone string `json:"secondaryContactPhone"`
}

// ComplianceStep carries policy attestations and accreditations.
type ComplianceStep struct {
	HealthSafetyPolicy  FlexBool `json:"healthSafetyPolicy"`
	EnvironmentalPolicy FlexBool `json:"environmentalPolicy"`
	QualityPolicy       FlexBool `json:"qualityPolicy"`
	ModernSlaveryPolicy FlexBool `json:"modernSlaveryPolicy"`
	GDPRCompliant       FlexBool `json:"gdprCompliant"`
	AccreditationBodies string   `json:"accreditationBodies"`
	CertifiedInstaller  FlexBool `json:"certifiedInstaller"`
	CertificationNumber string   `json:"certificationNumber"`
}

// InsuranceStep carries liability cover details.
type InsuranceStep struct {
	PublicLiabilityInsurer         string   `json:"publicLiabilityInsurer"`
	PublicLiabilityPolicyNumber    string   `json:"publicLiabilityPolicyNumber"`
	PublicLiabilityCoverGBP        FlexInt  `json:"publicLiabilityCoverGbp"`
	PublicLiabilityExpiry          string   `json:"publicLiabilityExpiry"`
	EmployersLiabilityInsurer      string   `json:"employersLiabilityInsurer"`
	EmployersLiabilityPolicyNumber string   `json:"employersLiabilityPolicyNumber"`
	EmployersLiabilityCoverGBP     FlexInt  `json:"employersLiabilityCoverGbp"`
	EmployersLiabilityExpiry       string   `json:"employersLiabilityExpiry"`
	ProfessionalIndemnityCover     FlexBool `json:"professionalIndemnityCover"`
}

// FinancialStep carries banking and turnover details.
type FinancialStep struct {
	BankName             string  `json:"bankName"`
	AccountName          string  `json:"accountName"`
	SortCode             string  `json:"sortCode"`
	AccountNumberLast4   string  `json:"accountNumberLast4"`
	PaymentTermsDays     FlexInt `json:"paymentTermsDays"`
	AnnualTurnoverGBP    FlexInt `json:"annualTurnoverGbp"`
	CreditLimitRequested FlexInt `json:"creditLimitRequested"`
}

// AgreementsStep carries the signed agreement flags.
type AgreementsStep struct {
	TermsAccepted         FlexBool `json:"termsAccepted"`
	CodeOfConductAccepted FlexBool `json:"codeOfConductAccepted"`
	DataSharingAccepted   FlexBool `json:"dataSharingAccepted"`
	MarketingOptIn        FlexBool `json:"marketingOptIn"`
	SignatoryName         string   `json:"signatoryName"`
	SignatoryRole         string   `json:"signatoryRole"`
}
