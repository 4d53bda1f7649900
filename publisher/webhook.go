package publisher

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/mcxwatch/models"
)

// SignatureHeader carries the HMAC-SHA256 of the request body when a secret
// is configured: "sha256=<hex>".
const SignatureHeader = "X-Mcxwatch-Signature"

// EventSnapshot is the only event type sent today.
const EventSnapshot = "snapshot.published"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string              `json:"type"`
	Seq       uint64              `json:"seq"`
	Timestamp int64               `json:"timestamp"`
	Data      models.SnapshotView `json:"data"`
}

// WebhookPublisher posts each snapshot to a URL. Delivery is asynchronous
// with retries so a slow endpoint never holds up the refresh loop.
type WebhookPublisher struct {
	url    string
	secret string
	client *http.Client

	// Delays between attempts; the first entry is normally zero.
	Delays []time.Duration
}

// NewWebhookPublisher creates a publisher for url. An empty secret disables
// signing.
func NewWebhookPublisher(url, secret string) *WebhookPublisher {
	return &WebhookPublisher{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		Delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

func (w *WebhookPublisher) Name() string { return "webhook" }

// Publish schedules delivery and returns immediately.
func (w *WebhookPublisher) Publish(_ context.Context, snap *models.Snapshot) error {
	event := &Event{
		Type:      EventSnapshot,
		Seq:       snap.Seq,
		Timestamp: time.Now().Unix(),
		Data:      snap.View(),
	}
	go w.deliverWithRetry(event)
	return nil
}

func (w *WebhookPublisher) Close() error { return nil }

// Deliver sends one event synchronously.
func (w *WebhookPublisher) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mcxwatch-webhook/1.0")

	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookPublisher) deliverWithRetry(event *Event) {
	for attempt, delay := range w.Delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := w.Deliver(ctx, event)
		cancel()
		if err == nil {
			slog.Debug("webhook delivered", "url", w.url, "seq", event.Seq, "attempt", attempt+1)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", w.url,
			"seq", event.Seq,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries", "url", w.url, "seq", event.Seq)
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
