package applications

import "strings"

// Flatten maps the nested form payload onto the flat Application schema.
// The mapping is exhaustive and explicit: every column has exactly one source
// field, strings are trimmed, and absent step fields flatten to the zero
// value of their column type.
func Flatten(p SubmissionPayload) Application {
	return Application{
		InvitationCode: strings.ToUpper(strings.TrimSpace(p.InvitationCode)),

		CompanyName:        strings.TrimSpace(p.Company.CompanyName),
		TradingName:        strings.TrimSpace(p.Company.TradingName),
		RegistrationNumber: strings.TrimSpace(p.Company.RegistrationNumber),
		VATNumber:          strings.TrimSpace(p.Company.VATNumber),
		Website:            strings.TrimSpace(p.Company.Website),
		YearEstablished:    int(p.Company.YearEstablished),
		EmployeeCount:      int(p.Company.EmployeeCount),
		AddressLine1:       strings.TrimSpace(p.Company.AddressLine1),
		AddressLine2:       strings.TrimSpace(p.Company.AddressLine2),
		City:               strings.TrimSpace(p.Company.City),
		Postcode:           strings.TrimSpace(p.Company.Postcode),
		Country:            strings.TrimSpace(p.Company.Country),
		RegionsCovered:     strings.TrimSpace(p.Company.RegionsCovered),

		ContactName:           strings.TrimSpace(p.Contacts.ContactName),
		ContactTitle:          strings.TrimSpace(p.Contacts.ContactTitle),
		ContactEmail:          strings.TrimSpace(p.Contacts.ContactEmail),
		ContactPhone:          strings.TrimSpace(p.Contacts.ContactPhone),
		SecondaryContactName:  strings.TrimSpace(p.Contacts.SecondaryContactName),
		SecondaryContactEmail: strings.TrimSpace(p.Contacts.SecondaryContactEmail),
		SecondaryContactPhone: strings.TrimSpace(p.Contacts.SecondaryContactPhone),

		HealthSafetyPolicy:  bool(p.Compliance.HealthSafetyPolicy),
		EnvironmentalPolicy: bool(p.Compliance.EnvironmentalPolicy),
		QualityPolicy:       bool(p.Compliance.QualityPolicy),
		ModernSlaveryPolicy: bool(p.Compliance.ModernSlaveryPolicy),
		GDPRCompliant:       bool(p.Compliance.GDPRCompliant),
		AccreditationBodies: strings.TrimSpace(p.Compliance.AccreditationBodies),
		CertifiedInstaller:  bool(p.Compliance.CertifiedInstaller),
		CertificationNumber: strings.TrimSpace(p.Compliance.CertificationNumber),

		PublicLiabilityInsurer:         strings.TrimSpace(p.Insurance.PublicLiabilityInsurer),
		PublicLiabilityPolicyNumber:    strings.TrimSpace(p.Insurance.PublicLiabilityPolicyNumber),
		PublicLiabilityCoverGBP:        int64(p.Insurance.PublicLiabilityCoverGBP),
		PublicLiabilityExpiry:          strings.TrimSpace(p.Insurance.PublicLiabilityExpiry),
		EmployersLiabilityInsurer:      strings.TrimSpace(p.Insurance.EmployersLiabilityInsurer),
		EmployersLiabilityPolicyNumber: strings.TrimSpace(p.Insurance.EmployersLiabilityPolicyNumber),
		EmployersLiabilityCoverGBP:     int64(p.Insurance.EmployersLiabilityCoverGBP),
		EmployersLiabilityExpiry:       strings.TrimSpace(p.Insurance.EmployersLiabilityExpiry),
		ProfessionalIndemnityCover:     bool(p.Insurance.ProfessionalIndemnityCover),

		BankName:             strings.TrimSpace(p.Financial.BankName),
		AccountName:          strings.TrimSpace(p.Financial.AccountName),
		SortCode:             strings.TrimSpace(p.Financial.SortCode),
		AccountNumberLast4:   strings.TrimSpace(p.Financial.AccountNumberLast4),
		PaymentTermsDays:     int(p.Financial.PaymentTermsDays),
		AnnualTurnoverGBP:    int64(p.Financial.AnnualTurnoverGBP),
		CreditLimitRequested: int64(p.Financial.CreditLimitRequested),

		TermsAccepted:         bool(p.Agreements.TermsAccepted),
		CodeOfConductAccepted: bool(p.Agreements.CodeOfConductAccepted),
		DataSharingAccepted:   bool(p.Agreements.DataSharingAccepted),
		MarketingOptIn:        bool(p.Agreements.MarketingOptIn),
		SignatoryName:         strings.TrimSpace(p.Agreements.SignatoryName),
		SignatoryRole:         strings.TrimSpace(p.Agreements.SignatoryRole),
	}
}
