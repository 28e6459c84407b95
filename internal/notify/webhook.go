package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookDispatcher POSTs events as JSON to a configured URL.
type WebhookDispatcher struct {
	URL        string
	HTTPClient *http.Client
}

// NewWebhookDispatcher constructs a WebhookDispatcher.
func NewWebhookDispatcher(url string) *WebhookDispatcher {
	return &WebhookDispatcher{
		URL:        strings.TrimSpace(url),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Dispatch delivers one event. Non-2xx responses are errors so the caller
// can log them.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook status %d", resp.StatusCode)
	}
	return nil
}

var _ Dispatcher = (*WebhookDispatcher)(nil)
