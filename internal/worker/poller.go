package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/domain/retry"
	"github.com/openivr/call-server/internal/infrastructure/webhook"
)

// Poller keeps a session's status current. It launches the segment
// fetcher exactly once when the call first connects and stops on a
// terminal status or when its retry budget runs out.
type Poller struct {
	ctx      context.Context
	store    call.Store
	control  call.Control
	fetcher  *Fetcher
	notifier *webhook.Notifier
	policy   retry.Policy
	log      zerolog.Logger
}

// NewPoller creates a status poller. ctx is the application lifetime
// context; every launched watch stops with it.
func NewPoller(ctx context.Context, store call.Store, control call.Control, fetcher *Fetcher, notifier *webhook.Notifier, policy retry.Policy, log zerolog.Logger) *Poller {
	return &Poller{
		ctx:      ctx,
		store:    store,
		control:  control,
		fetcher:  fetcher,
		notifier: notifier,
		policy:   policy,
		log:      log.With().Str("component", "status-poller").Logger(),
	}
}

var _ call.PollerLauncher = (*Poller)(nil)

// Launch starts the background status watch for a new session.
func (p *Poller) Launch(id string) {
	go p.Run(p.ctx, id)
}

// Run polls the contact's status at the policy's fixed cadence for at
// most the policy's retry count. Query failures are logged and retried
// at the same cadence; only a terminal status, an exhausted budget or
// context cancellation end the loop.
func (p *Poller) Run(ctx context.Context, id string) {
	for attempt := 0; attempt < p.policy.MaxRetries; attempt++ {
		update, err := p.control.Describe(ctx, id)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			p.log.Warn().Err(err).Str("contact_id", id).Msg("status check failed")

		default:
			if err := p.store.MergeStatus(ctx, id, update); err != nil {
				// Session removed while polling; nothing left to do.
				return
			}

			if update.Status.IsConnected() {
				first, err := p.store.MarkFetcherStarted(ctx, id)
				if err != nil {
					return
				}
				if first {
					p.log.Info().Str("contact_id", id).Msg("call connected, starting real-time analysis")
					go p.fetcher.FetchOnce(ctx, id)
				}
			}

			if update.Status.IsTerminal() {
				p.log.Info().Str("contact_id", id).Str("status", string(update.Status)).Msg("call reached terminal status")
				p.notifyTerminal(ctx, id)
				return
			}
		}

		if p.policy.Sleep(ctx, 1) != nil {
			return
		}
	}
	p.log.Warn().Str("contact_id", id).Msg("status poll budget exhausted")
}

func (p *Poller) notifyTerminal(ctx context.Context, id string) {
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return
	}
	p.notifier.NotifyTerminal(ctx, sess)
}
