package drafts

import (
	"testing"
	"time"
)

func TestSubfolder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field string
		want  string
	}{
		{field: "companyLogo", want: SubfolderLogos},
		{field: "brandLogoDark", want: SubfolderLogos},
		{field: "insuranceCertificate", want: SubfolderCertificates},
		{field: "publicLiabilityCertificate", want: SubfolderCertificates},
		{field: "bankStatement", want: SubfolderFinancial},
		{field: "financialAccounts", want: SubfolderFinancial},
		{field: "taxClearance", want: SubfolderFinancial},
		{field: "healthSafetyPolicy", want: SubfolderDocuments},
		{field: "", want: SubfolderDocuments},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.field, func(t *testing.T) {
			t.Parallel()
			if got := Subfolder(tt.field); got != tt.want {
				t.Fatalf("Subfolder(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestScratchKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	got := ScratchKey("abcd1234", "companyLogo", "logo.png", now)
	want := "draft/partners/ABCD1234/logos/2026-03-14_companyLogo_logo.png"
	if got != want {
		t.Fatalf("ScratchKey = %q, want %q", got, want)
	}
}

func TestScratchKeySanitizesSegments(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	got := ScratchKey("ABCD1234", "insurance certificate", "my cert (1).pdf", now)
	want := "draft/partners/ABCD1234/certificates/2026-03-14_insurance_certificate_my_cert__1_.pdf"
	if got != want {
		t.Fatalf("ScratchKey = %q, want %q", got, want)
	}
}

func TestIsLogoField(t *testing.T) {
	t.Parallel()

	if !IsLogoField("companyLogo") {
		t.Fatalf("expected companyLogo to be a logo field")
	}
	if IsLogoField("insuranceCertificate") {
		t.Fatalf("expected insuranceCertificate not to be a logo field")
	}
}
