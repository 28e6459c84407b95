package drafts_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"partner-portal-backend/internal/bootstrap"
	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()

	app, err := bootstrap.Build(config.Config{
		Env:                "dev",
		LocalStoreDir:      t.TempDir(),
		SPLibraryRoot:      "Shared Documents/Partners",
		WorkerPollInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}

	app.InvitationsRepo.(*invitations.MemoryRepo).Seed(invitations.Invitation{
		Code:        "ABCD1234",
		CompanyName: "Acme Solar",
		Status:      invitations.StatusActive,
		CreatedAt:   time.Now().UTC(),
	})
	app.InvitationsRepo.(*invitations.MemoryRepo).Seed(invitations.Invitation{
		Code:      "REVOKED1",
		Status:    invitations.StatusRevoked,
		CreatedAt: time.Now().UTC(),
	})
	return app
}

func TestUploadMultipart(t *testing.T) {
	app := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("invitationCode", "ABCD1234")
	w.WriteField("fieldName", "companyLogo")
	fw, _ := w.CreateFormFile("file", "logo.png")
	fw.Write([]byte("png-bytes"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-file", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool   `json:"success"`
		DraftID    string `json:"draftId"`
		ScratchKey string `json:"scratchKey"`
		SizeBytes  int64  `json:"sizeBytes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.DraftID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.SizeBytes != int64(len("png-bytes")) {
		t.Fatalf("size: %d", resp.SizeBytes)
	}
	wantPrefix := "draft/partners/ABCD1234/logos/"
	if len(resp.ScratchKey) < len(wantPrefix) || resp.ScratchKey[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("scratch key %q lacks prefix %q", resp.ScratchKey, wantPrefix)
	}
}

func TestUploadBase64(t *testing.T) {
	app := newTestApp(t)

	body, _ := json.Marshal(map[string]string{
		"invitationCode": "ABCD1234",
		"fieldName":      "insuranceCertificate",
		"fileName":       "cert.pdf",
		"contentType":    "application/pdf",
		"fileContent":    base64.StdEncoding.EncodeToString([]byte("pdf-bytes")),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload-file", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	drafts, err := app.DraftService.List(req.Context(), "ABCD1234")
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].OriginalFilename != "cert.pdf" {
		t.Fatalf("drafts: %+v", drafts)
	}
}

func TestUploadRejectsUnknownInvitation(t *testing.T) {
	app := newTestApp(t)

	body, _ := json.Marshal(map[string]string{
		"invitationCode": "NOPE9999",
		"fieldName":      "companyLogo",
		"fileName":       "logo.png",
		"fileContent":    base64.StdEncoding.EncodeToString([]byte("png")),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload-file", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestUploadRejectsRevokedInvitation(t *testing.T) {
	app := newTestApp(t)

	body, _ := json.Marshal(map[string]string{
		"invitationCode": "REVOKED1",
		"fieldName":      "companyLogo",
		"fileName":       "logo.png",
		"fileContent":    base64.StdEncoding.EncodeToString([]byte("png")),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload-file", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestUploadReplacesSameSlot(t *testing.T) {
	app := newTestApp(t)

	send := func(content string) {
		t.Helper()
		body, _ := json.Marshal(map[string]string{
			"invitationCode": "ABCD1234",
			"fieldName":      "companyLogo",
			"fileName":       "logo.png",
			"fileContent":    base64.StdEncoding.EncodeToString([]byte(content)),
		})
		req := httptest.NewRequest(http.MethodPost, "/api/upload-file", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
		}
	}

	send("first")
	send("second")

	drafts, err := app.DraftService.List(context.Background(), "ABCD1234")
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected re-upload to replace, got %d drafts", len(drafts))
	}
	if drafts[0].SizeBytes != int64(len("second")) {
		t.Fatalf("kept stale draft: %+v", drafts[0])
	}
}
