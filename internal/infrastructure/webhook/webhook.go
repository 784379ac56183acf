// Package webhook posts the final session record to a configured URL
// when a call reaches a terminal status.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
)

// Notifier delivers terminal-status notifications. Delivery is best
// effort: failures are logged, never propagated into the session.
type Notifier struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewNotifier creates a notifier for the given URL. An empty URL
// disables delivery.
func NewNotifier(url string, timeout time.Duration, log zerolog.Logger) *Notifier {
	return &Notifier{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		url: url,
		log: log.With().Str("component", "status-webhook").Logger(),
	}
}

// payload is the webhook body.
type payload struct {
	ContactID  string            `json:"contact_id"`
	Status     call.Status       `json:"status"`
	FlowMode   call.FlowMode     `json:"flow_mode"`
	Attributes map[string]string `json:"attributes"`
	Transcript string            `json:"transcript"`
	EndedAt    time.Time         `json:"ended_at"`
}

// NotifyTerminal posts the session's final state.
func (n *Notifier) NotifyTerminal(ctx context.Context, sess *call.Session) {
	if n.url == "" {
		return
	}

	body := payload{
		ContactID:  sess.ID,
		Status:     sess.Status,
		FlowMode:   sess.FlowMode,
		Attributes: sess.Attributes,
		Transcript: call.FormatTranscript(call.AssembleTranscript(sess.Transcript)),
		EndedAt:    time.Now(),
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(n.url)
	if err != nil {
		n.log.Warn().Err(err).Str("contact_id", sess.ID).Msg("status webhook delivery failed")
		return
	}
	if resp.IsError() {
		n.log.Warn().
			Str("contact_id", sess.ID).
			Int("status", resp.StatusCode()).
			Msg(fmt.Sprintf("status webhook rejected: %s", resp.Status()))
		return
	}
	n.log.Debug().Str("contact_id", sess.ID).Msg("status webhook delivered")
}
