// Package discord posts notifications through a channel webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

// ErrNotConfigured is returned when no webhook URL is available; the run
// continues and every dispatch records a failed outcome.
var ErrNotConfigured = errors.New("discord webhook is not configured")

// Notifier sends messages to a Discord channel via webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one message as webhook content. Discord answers 204 on success.
func (n *Notifier) Send(ctx context.Context, message string) error {
	if n.webhookURL == "" || n.client == nil {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
