package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain/ports/adapter"
)

// WebhookDispatcher posts access and billing events to the CRM webhook.
// Delivery is best effort: failures are logged and dropped, never retried
// into the caller's path. Each post runs on its own goroutine so a slow CRM
// endpoint never holds up the caller.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	log    *zerolog.Logger
}

var _ adapter.NotificationDispatcher = (*WebhookDispatcher)(nil)

func NewWebhookDispatcher(url string, logger *zerolog.Logger) *WebhookDispatcher {
	l := logger.With().Str("component", "notify").Logger()
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    &l,
	}
}

func (d *WebhookDispatcher) NotifyAccessGranted(ctx context.Context, ownerID, orderID string) {
	// Detached from the request context: the client timeout bounds delivery.
	go d.post(context.WithoutCancel(ctx), map[string]string{
		"event":    "access-granted",
		"owner_id": ownerID,
		"order_id": orderID,
	})
}

func (d *WebhookDispatcher) NotifyChargeAttempt(ctx context.Context, ownerID, attemptID string) {
	go d.post(context.WithoutCancel(ctx), map[string]string{
		"event":      "charge-attempt",
		"owner_id":   ownerID,
		"attempt_id": attemptID,
	})
}

func (d *WebhookDispatcher) post(ctx context.Context, payload map[string]string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		d.log.Warn().Err(err).Msg("notification request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn().Err(err).Str("event", payload["event"]).Msg("notification delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log.Warn().Int("status", resp.StatusCode).Str("event", payload["event"]).Msg("notification rejected")
	}
}

// NoopDispatcher is used when no webhook is configured.
type NoopDispatcher struct{}

var _ adapter.NotificationDispatcher = (*NoopDispatcher)(nil)

func (NoopDispatcher) NotifyAccessGranted(context.Context, string, string) {}
func (NoopDispatcher) NotifyChargeAttempt(context.Context, string, string) {}
