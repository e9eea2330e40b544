package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	SignatureHeader = "X-Kinface-Signature"
	EventHeader     = "X-Kinface-Event"
)

// Client posts signed JSON events to a single endpoint.
type Client struct {
	url    string
	secret string
	client *http.Client
}

func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Send(ctx context.Context, eventType string, data interface{}) error {
	now := time.Now().UTC()
	event := EventPayload{
		Type:      eventType,
		Data:      data,
		Timestamp: now,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(c.secret, now.Unix(), payload))
	req.Header.Set(EventHeader, event.Type)
	req.Header.Set("User-Agent", "Kinface-Webhook/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("send webhook: HTTP %d", resp.StatusCode)
	}

	return nil
}
