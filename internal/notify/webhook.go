package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// WebhookSender implements Sender by posting each message as JSON to an
// HTTP mail relay.
type WebhookSender struct {
	url     string
	from    string
	headers map[string]string
	client  *http.Client
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookSender) {
		w.client = c
	}
}

// WithHeaders adds static headers (for example an API key) to every request.
func WithHeaders(h map[string]string) WebhookOption {
	return func(w *WebhookSender) {
		w.headers = h
	}
}

// WithFrom sets the sender address included in the payload.
func WithFrom(from string) WebhookOption {
	return func(w *WebhookSender) {
		w.from = from
	}
}

// NewWebhookSender creates a new WebhookSender.
func NewWebhookSender(url string, opts ...WebhookOption) *WebhookSender {
	w := &WebhookSender{
		url:    url,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// webhookPayload is the JSON body posted to the relay.
type webhookPayload struct {
	From    string   `json:"from,omitempty"`
	Bcc     []string `json:"bcc"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts msg to the relay.
func (w *WebhookSender) Send(ctx context.Context, msg *Message, recipients []string) error {
	body, err := json.Marshal(webhookPayload{
		From:    w.from,
		Bcc:     recipients,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("webhook rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		if readErr != nil {
			return fmt.Errorf("webhook returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
