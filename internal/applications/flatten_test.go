package applications

import (
	"encoding/json"
	"testing"
)

func TestFlattenDefaultsForMissingSteps(t *testing.T) {
	t.Parallel()

	var payload SubmissionPayload
	if err := json.Unmarshal([]byte(`{"invitationCode":"abcd1234"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	app := Flatten(payload)

	if app.InvitationCode != "ABCD1234" {
		t.Fatalf("invitation code = %q, want ABCD1234", app.InvitationCode)
	}
	if app.CompanyName != "" {
		t.Fatalf("companyName default = %q, want empty", app.CompanyName)
	}
	if app.YearEstablished != 0 {
		t.Fatalf("yearEstablished default = %d, want 0", app.YearEstablished)
	}
	if app.TermsAccepted {
		t.Fatalf("termsAccepted default = true, want false")
	}
	if app.PublicLiabilityCoverGBP != 0 {
		t.Fatalf("publicLiabilityCoverGbp default = %d, want 0", app.PublicLiabilityCoverGBP)
	}
}

func TestFlattenBooleanCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "bool true", raw: `true`, want: true},
		{name: "string true", raw: `"true"`, want: true},
		{name: "number one", raw: `1`, want: true},
		{name: "string one", raw: `"1"`, want: true},
		{name: "bool false", raw: `false`, want: false},
		{name: "string false", raw: `"false"`, want: false},
		{name: "number zero", raw: `0`, want: false},
		{name: "null", raw: `null`, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := `{"agreements":{"termsAccepted":` + tt.raw + `}}`
			var payload SubmissionPayload
			if err := json.Unmarshal([]byte(body), &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := Flatten(payload).TermsAccepted; got != tt.want {
				t.Fatalf("termsAccepted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlexBoolRejectsGarbage(t *testing.T) {
	t.Parallel()

	var b FlexBool
	if err := json.Unmarshal([]byte(`"yes"`), &b); err == nil {
		t.Fatalf("expected error decoding %q", "yes")
	}
}

func TestFlexIntAcceptsNumericStrings(t *testing.T) {
	t.Parallel()

	body := `{"company":{"yearEstablished":"2003","employeeCount":42}}`
	var payload SubmissionPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	app := Flatten(payload)
	if app.YearEstablished != 2003 {
		t.Fatalf("yearEstablished = %d, want 2003", app.YearEstablished)
	}
	if app.EmployeeCount != 42 {
		t.Fatalf("employeeCount = %d, want 42", app.EmployeeCount)
	}
}

func TestFlattenTrimsStrings(t *testing.T) {
	t.Parallel()

	payload := SubmissionPayload{
		InvitationCode: "  abcd1234  ",
		Company:        CompanyStep{CompanyName: "  Acme Ltd  "},
	}
	app := Flatten(payload)
	if app.CompanyName != "Acme Ltd" {
		t.Fatalf("companyName = %q, want %q", app.CompanyName, "Acme Ltd")
	}
	if app.InvitationCode != "ABCD1234" {
		t.Fatalf("invitationCode = %q, want ABCD1234", app.InvitationCode)
	}
}
