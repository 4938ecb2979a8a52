// Package notify delivers operator notifications to an external service.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
)

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, msg string) error
}

// Discard is a Sink which drops every notification.
type Discard struct{}

func (Discard) Notify(ctx context.Context, msg string) error { return nil }

// Webhook posts notifications to a chat webhook URL which accepts a JSON
// object with a "content" field, such as a Discord channel webhook.
type Webhook struct {
	// HTTP is the HTTP client for performing requests.
	// If nil, http.DefaultClient is used.
	HTTP *http.Client
	// URL is the webhook URL.
	URL string
}

// Notify posts msg to the webhook.
func (w *Webhook) Notify(ctx context.Context, msg string) error {
	body, err := json.Marshal(struct {
		Content string `json:"content"`
	}{msg})
	if err != nil {
		return fmt.Errorf("couldn't encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("couldn't make request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	hc := w.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("couldn't post notification: %w", err)
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook failed: %s (%s)", b, resp.Status)
	}
	return nil
}

// Best delivers msg to sink, logging and discarding any error.
// It never fails, so callers in event handlers can use it freely.
func Best(ctx context.Context, log *slog.Logger, sink Sink, msg string) {
	if sink == nil {
		return
	}
	if err := sink.Notify(ctx, msg); err != nil {
		log.WarnContext(ctx, "notification failed", slog.Any("err", err), slog.String("msg", msg))
	}
}
