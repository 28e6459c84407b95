package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FileInfo is the recorded location of an uploaded file or created folder.
type FileInfo struct {
	ServerRelativeURL string
	UniqueID          string
}

// APIError carries the repository's HTTP failure detail.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sharepoint api status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the external document repository's REST API. Calls take an
// explicit bearer token so the caller controls token acquisition and reuse.
type Client struct {
	SiteURL    string
	HTTPClient *http.Client
}

// NewClient constructs a Client for the given site URL.
func NewClient(siteURL string) *Client {
	return &Client{
		SiteURL:    strings.TrimRight(strings.TrimSpace(siteURL), "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EnsureFolder creates a folder at the given server-relative path. Creating a
// folder that already exists is success: provisioning must be idempotent.
func (c *Client) EnsureFolder(ctx context.Context, token, serverRelativePath string) error {
	payload, err := json.Marshal(map[string]string{
		"ServerRelativeUrl": serverRelativePath,
	})
	if err != nil {
		return err
	}

	endpoint := c.SiteURL + "/_api/web/folders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json;odata=nometadata")
	req.Header.Set("Content-Type", "application/json;odata=nometadata")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("create folder %s: %w", serverRelativePath, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if isSuccess(resp.StatusCode) {
		return nil
	}
	if isAlreadyExists(resp.StatusCode, body) {
		return nil
	}
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// UploadFile adds a file to a folder with overwrite semantics and returns its
// final location.
func (c *Client) UploadFile(ctx context.Context, token, folderPath, fileName, contentType string, body io.Reader) (FileInfo, error) {
	endpoint := fmt.Sprintf(
		"%s/_api/web/GetFolderByServerRelativeUrl('%s')/Files/Add(url='%s',overwrite=true)",
		c.SiteURL,
		url.PathEscape(folderPath),
		url.PathEscape(fileName),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return FileInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json;odata=nometadata")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return FileInfo{}, fmt.Errorf("upload %s/%s: %w", folderPath, fileName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return FileInfo{}, err
	}
	if !isSuccess(resp.StatusCode) {
		return FileInfo{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	info, err := parseResourceInfo(raw)
	if err != nil {
		return FileInfo{}, fmt.Errorf("decode upload response: %w", err)
	}
	return info, nil
}

// parseResourceInfo accepts both the flat (nometadata) and the verbose
// ({"d": {...}}) response envelopes.
func parseResourceInfo(raw []byte) (FileInfo, error) {
	var envelope struct {
		D *struct {
			ServerRelativeURL string `json:"ServerRelativeUrl"`
			UniqueID          string `json:"UniqueId"`
		} `json:"d"`
		ServerRelativeURL string `json:"ServerRelativeUrl"`
		UniqueID          string `json:"UniqueId"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return FileInfo{}, err
	}
	if envelope.D != nil {
		return FileInfo{
			ServerRelativeURL: envelope.D.ServerRelativeURL,
			UniqueID:          envelope.D.UniqueID,
		}, nil
	}
	return FileInfo{
		ServerRelativeURL: envelope.ServerRelativeURL,
		UniqueID:          envelope.UniqueID,
	}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isAlreadyExists(status int, body []byte) bool {
	if status == http.StatusConflict {
		return true
	}
	return status == http.StatusInternalServerError && bytes.Contains(bytes.ToLower(body), []byte("already exists"))
}
