// Package notify delivers practice events to the external messaging sink.
// Delivery is best effort: failures are reported to the caller and never
// retried here.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	practicePath  = "/practice"
	promotionPath = "/waitlisted-msg"
)

type Practice struct {
	PracticeID string    `json:"practice_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

type Promotion struct {
	Practice  Practice `json:"practice"`
	DiscordID string   `json:"discord_id"`
}

type Notifier interface {
	// PracticeOpening announces that signups for a practice are open.
	PracticeOpening(ctx context.Context, p Practice) error
	// WaitlistPromotion tells a participant they moved onto a main roster.
	WaitlistPromotion(ctx context.Context, m Promotion) error
}

// Webhook posts events as JSON to paths under a base URL.
type Webhook struct {
	baseURL string
	client  *HTTPClient
}

func NewWebhook(baseURL string, client *HTTPClient) *Webhook {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &Webhook{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (w *Webhook) PracticeOpening(ctx context.Context, p Practice) error {
	return w.post(ctx, practicePath, p)
}

func (w *Webhook) WaitlistPromotion(ctx context.Context, m Promotion) error {
	if m.DiscordID == "" {
		metricNotifySkippedTotal.Add(1)
		log.Debug().Str("practice_id", m.Practice.PracticeID).Msg("promotion notice skipped: no contact handle")
		return nil
	}
	return w.post(ctx, promotionPath, m)
}

func (w *Webhook) post(ctx context.Context, path string, body any) error {
	if err := w.client.PostJSON(ctx, w.baseURL+path, body); err != nil {
		metricNotifyFailedTotal.Add(1)
		return err
	}
	metricNotifySentTotal.Add(1)
	return nil
}

// Nop drops every event. Used when no sink is configured.
type Nop struct{}

func (Nop) PracticeOpening(context.Context, Practice) error {
	metricNotifySkippedTotal.Add(1)
	return nil
}

func (Nop) WaitlistPromotion(context.Context, Promotion) error {
	metricNotifySkippedTotal.Add(1)
	return nil
}

// New returns a Webhook for baseURL, or Nop when baseURL is blank.
func New(baseURL string, timeout time.Duration) Notifier {
	if strings.TrimSpace(baseURL) == "" {
		log.Info().Msg("notification sink disabled")
		return Nop{}
	}
	return NewWebhook(baseURL, NewHTTPClient(timeout))
}
