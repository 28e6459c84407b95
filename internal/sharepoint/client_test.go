package sharepoint

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEnsureFolderSendsPayloadAndToken(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/_api/web/folders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ServerRelativeUrl":"Shared Documents/Partners/ABCD1234","UniqueId":"uid-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.EnsureFolder(context.Background(), "tok", "Shared Documents/Partners/ABCD1234"); err != nil {
		t.Fatalf("ensure folder: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"ServerRelativeUrl":"Shared Documents/Partners/ABCD1234"`) {
		t.Fatalf("payload: %s", gotBody)
	}
}

func TestEnsureFolderTreatsExistingAsSuccess(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"conflict", http.StatusConflict, `{"error":{"message":"conflict"}}`},
		{"verbose already exists", http.StatusInternalServerError, `{"error":{"message":{"value":"A file or folder with the name already exists."}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			if err := c.EnsureFolder(context.Background(), "tok", "Shared Documents/Partners/ABCD1234"); err != nil {
				t.Fatalf("expected existing folder treated as success, got %v", err)
			}
		})
	}
}

func TestEnsureFolderPropagatesOtherFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"access denied"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.EnsureFolder(context.Background(), "tok", "Shared Documents/Partners/ABCD1234")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("status: %d", apiErr.StatusCode)
	}
}

func TestUploadFileParsesFlatEnvelope(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		body, _ := io.ReadAll(r.Body)
		if string(body) != "pdf-bytes" {
			t.Errorf("body: %q", body)
		}
		w.Write([]byte(`{"ServerRelativeUrl":"/sites/p/Shared Documents/Partners/ABCD1234/certificates/cert.pdf","UniqueId":"uid-2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	info, err := c.UploadFile(context.Background(), "tok",
		"Shared Documents/Partners/ABCD1234/certificates", "cert.pdf",
		"application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.UniqueID != "uid-2" {
		t.Fatalf("unique id: %q", info.UniqueID)
	}
	if !strings.Contains(gotPath, "Files/Add(url=") || !strings.Contains(gotPath, "overwrite=true") {
		t.Fatalf("request path: %s", gotPath)
	}
}

func TestUploadFileParsesVerboseEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"d":{"ServerRelativeUrl":"/sites/p/logos/logo.png","UniqueId":"uid-3"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	info, err := c.UploadFile(context.Background(), "tok", "logos", "logo.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.ServerRelativeURL != "/sites/p/logos/logo.png" || info.UniqueID != "uid-3" {
		t.Fatalf("info: %+v", info)
	}
}

func TestUploadFileReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusLocked)
		w.Write([]byte("locked"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.UploadFile(context.Background(), "tok", "logos", "logo.png", "image/png", strings.NewReader("png"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusLocked || apiErr.Body != "locked" {
		t.Fatalf("api error: %+v", apiErr)
	}
}
