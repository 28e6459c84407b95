package applications

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `
    id, invitation_code, status, submitted_at,
    COALESCE(company_name, ''), COALESCE(trading_name, ''), COALESCE(registration_number, ''),
    COALESCE(vat_number, ''), COALESCE(website, ''), COALESCE(year_established, 0),
    COALESCE(employee_count, 0), COALESCE(address_line1, ''), COALESCE(address_line2, ''),
    COALESCE(city, ''), COALESCE(postcode, ''), COALESCE(country, ''), COALESCE(regions_covered, ''),
    COALESCE(contact_name, ''), COALESCE(contact_title, ''), COALESCE(contact_email, ''),
    COALESCE(contact_phone, ''), COALESCE(secondary_contact_name, ''),
    COALESCE(secondary_contact_email, ''), COALESCE(secondary_contact_phone, ''),
    health_safety_policy, environmental_policy, quality_policy, modern_slavery_policy,
    gdpr_compliant, COALESCE(accreditation_bodies, ''), certified_installer,
    COALESCE(certification_number, ''),
    COALESCE(public_liability_insurer, ''), COALESCE(public_liability_policy_number, ''),
    COALESCE(public_liability_cover_gbp, 0), COALESCE(public_liability_expiry, ''),
    COALESCE(employers_liability_insurer, ''), COALESCE(employers_liability_policy_number, ''),
    COALESCE(employers_liability_cover_gbp, 0), COALESCE(employers_liability_expiry, ''),
    professional_indemnity_cover,
    COALESCE(bank_name, ''), COALESCE(account_name, ''), COALESCE(sort_code, ''),
    COALESCE(account_number_last4, ''), COALESCE(payment_terms_days, 0),
    COALESCE(annual_turnover_gbp, 0), COALESCE(credit_limit_requested, 0),
    terms_accepted, code_of_conduct_accepted, data_sharing_accepted, marketing_opt_in,
    COALESCE(signatory_name, ''), COALESCE(signatory_role, ''),
    COALESCE(partner_logo_url, ''), COALESCE(partner_logo_id, ''),
    created_at`

func scanApplication(row interface{ Scan(...any) error }) (Application, error) {
	var app Application
	var submittedAt sql.NullTime
	err := row.Scan(
		&app.ID, &app.InvitationCode, &app.Status, &submittedAt,
		&app.CompanyName, &app.TradingName, &app.RegistrationNumber,
		&app.VATNumber, &app.Website, &app.YearEstablished,
		&app.EmployeeCount, &app.AddressLine1, &app.AddressLine2,
		&app.City, &app.Postcode, &app.Country, &app.RegionsCovered,
		&app.ContactName, &app.ContactTitle, &app.ContactEmail,
		&app.ContactPhone, &app.SecondaryContactName,
		&app.SecondaryContactEmail, &app.SecondaryContactPhone,
		&app.HealthSafetyPolicy, &app.EnvironmentalPolicy, &app.QualityPolicy, &app.ModernSlaveryPolicy,
		&app.GDPRCompliant, &app.AccreditationBodies, &app.CertifiedInstaller,
		&app.CertificationNumber,
		&app.PublicLiabilityInsurer, &app.PublicLiabilityPolicyNumber,
		&app.PublicLiabilityCoverGBP, &app.PublicLiabilityExpiry,
		&app.EmployersLiabilityInsurer, &app.EmployersLiabilityPolicyNumber,
		&app.EmployersLiabilityCoverGBP, &app.EmployersLiabilityExpiry,
		&app.ProfessionalIndemnityCover,
		&app.BankName, &app.AccountName, &app.SortCode,
		&app.AccountNumberLast4, &app.PaymentTermsDays,
		&app.AnnualTurnoverGBP, &app.CreditLimitRequested,
		&app.TermsAccepted, &app.CodeOfConductAccepted, &app.DataSharingAccepted, &app.MarketingOptIn,
		&app.SignatoryName, &app.SignatoryRole,
		&app.PartnerLogoURL, &app.PartnerLogoID,
		&app.CreatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if submittedAt.Valid {
		app.SubmittedAt = &submittedAt.Time
	}
	return app, nil
}

// Create inserts a new application row.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
    id, invitation_code, status, submitted_at,
    company_name, trading_name, registration_number, vat_number, website,
    year_established, employee_count, address_line1, address_line2, city,
    postcode, country, regions_covered,
    contact_name, contact_title, contact_email, contact_phone,
    secondary_contact_name, secondary_contact_email, secondary_contact_phone,
    health_safety_policy, environmental_policy, quality_policy,
    modern_slavery_policy, gdpr_compliant, accreditation_bodies,
    certified_installer, certification_number,
    public_liability_insurer, public_liability_policy_number,
    public_liability_cover_gbp, public_liability_expiry,
    employers_liability_insurer, employers_liability_policy_number,
    employers_liability_cover_gbp, employers_liability_expiry,
    professional_indemnity_cover,
    bank_name, account_name, sort_code, account_number_last4,
    payment_terms_days, annual_turnover_gbp, credit_limit_requested,
    terms_accepted, code_of_conduct_accepted, data_sharing_accepted,
    marketing_opt_in, signatory_name, signatory_role,
    created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
    $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
    $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
    $31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
    $41, $42, $43, $44, $45, $46, $47, $48, $49, $50,
    $51, $52, $53, $54, $55
)`

	var submittedAt sql.NullTime
	if app.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *app.SubmittedAt, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		app.ID, app.InvitationCode, app.Status, submittedAt,
		app.CompanyName, app.TradingName, app.RegistrationNumber, app.VATNumber, app.Website,
		app.YearEstablished, app.EmployeeCount, app.AddressLine1, app.AddressLine2, app.City,
		app.Postcode, app.Country, app.RegionsCovered,
		app.ContactName, app.ContactTitle, app.ContactEmail, app.ContactPhone,
		app.SecondaryContactName, app.SecondaryContactEmail, app.SecondaryContactPhone,
		app.HealthSafetyPolicy, app.EnvironmentalPolicy, app.QualityPolicy,
		app.ModernSlaveryPolicy, app.GDPRCompliant, app.AccreditationBodies,
		app.CertifiedInstaller, app.CertificationNumber,
		app.PublicLiabilityInsurer, app.PublicLiabilityPolicyNumber,
		app.PublicLiabilityCoverGBP, app.PublicLiabilityExpiry,
		app.EmployersLiabilityInsurer, app.EmployersLiabilityPolicyNumber,
		app.EmployersLiabilityCoverGBP, app.EmployersLiabilityExpiry,
		app.ProfessionalIndemnityCover,
		app.BankName, app.AccountName, app.SortCode, app.AccountNumberLast4,
		app.PaymentTermsDays, app.AnnualTurnoverGBP, app.CreditLimitRequested,
		app.TermsAccepted, app.CodeOfConductAccepted, app.DataSharingAccepted,
		app.MarketingOptIn, app.SignatoryName, app.SignatoryRole,
		app.CreatedAt,
	)
	return err
}

// GetByID fetches an application by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return app, err
}

// GetLatestByInvitation returns the most recent non-draft application for a code.
func (r *PGRepo) GetLatestByInvitation(ctx context.Context, invitationCode string) (Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE invitation_code = $1 AND status <> 'draft'
ORDER BY created_at DESC, id DESC
LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, invitationCode))
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	return app, err
}

// UpdateStatus advances status only from the expected current status.
func (r *PGRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	const query = `UPDATE applications SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus forces the status unconditionally. Used by staff actions only.
func (r *PGRepo) SetStatus(ctx context.Context, id, to string) error {
	const query = `UPDATE applications SET status = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, to, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPartnerLogo caches the migrated logo's external location on the row.
func (r *PGRepo) SetPartnerLogo(ctx context.Context, id, url, externalID string) error {
	const query = `UPDATE applications SET partner_logo_url = $1, partner_logo_id = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, url, externalID, id)
	return err
}

// Delete hard-deletes the application; files, reviews and notes cascade.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM applications WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AcquireMigrationLease claims the per-application migration lease. A lease
// older than LeaseTTL is treated as abandoned and may be stolen.
func (r *PGRepo) AcquireMigrationLease(ctx context.Context, id, owner string, now time.Time) (bool, error) {
	const query = `
UPDATE applications
SET migration_lease_owner = $1, migration_leased_at = $2
WHERE id = $3
  AND (migration_lease_owner IS NULL OR migration_leased_at < $4)`
	res, err := r.DB.ExecContext(ctx, query, owner, now, id, now.Add(-LeaseTTL))
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected == 1, nil
}

// ReleaseMigrationLease clears the lease if still held by owner.
func (r *PGRepo) ReleaseMigrationLease(ctx context.Context, id, owner string) error {
	const query = `
UPDATE applications
SET migration_lease_owner = NULL, migration_leased_at = NULL
WHERE id = $1 AND migration_lease_owner = $2`
	_, err := r.DB.ExecContext(ctx, query, id, owner)
	return err
}

// CreateFile inserts a migrated file record.
func (r *PGRepo) CreateFile(ctx context.Context, file ApplicationFile) error {
	const query = `
INSERT INTO application_files (
    id, application_id, field_name, original_filename, stored_filename,
    file_size, content_type, external_url, external_id, uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		file.ID,
		file.ApplicationID,
		file.FieldName,
		file.OriginalFilename,
		file.StoredFilename,
		file.FileSize,
		file.ContentType,
		file.ExternalURL,
		file.ExternalID,
		file.UploadedAt,
	)
	return err
}

// ListFiles returns migrated files for an application.
func (r *PGRepo) ListFiles(ctx context.Context, applicationID string) ([]ApplicationFile, error) {
	const query = `
SELECT id, application_id, field_name, original_filename, stored_filename,
       file_size, COALESCE(content_type, ''), COALESCE(external_url, ''),
       COALESCE(external_id, ''), uploaded_at
FROM application_files
WHERE application_id = $1
ORDER BY uploaded_at, id`

	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApplicationFile
	for rows.Next() {
		var f ApplicationFile
		if err := rows.Scan(
			&f.ID,
			&f.ApplicationID,
			&f.FieldName,
			&f.OriginalFilename,
			&f.StoredFilename,
			&f.FileSize,
			&f.ContentType,
			&f.ExternalURL,
			&f.ExternalID,
			&f.UploadedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FileExists reports whether a migrated record already exists for a slot.
func (r *PGRepo) FileExists(ctx context.Context, applicationID, fieldName, originalFilename string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM application_files
    WHERE application_id = $1 AND field_name = $2 AND original_filename = $3
)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, applicationID, fieldName, originalFilename).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ Repo = (*PGRepo)(nil)
