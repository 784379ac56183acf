// Package worker holds the per-session background tasks: the status
// poller and the analysis segment fetcher.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/domain/retry"
)

// Fetcher drains the currently-available analysis segments for a
// session, deduplicated, tolerating the period before the platform has
// started analyzing the call.
type Fetcher struct {
	store     call.Store
	source    call.SegmentSource
	pageSize  int32
	pageDelay time.Duration
	notReady  retry.Policy
	log       zerolog.Logger
}

// NewFetcher creates a segment fetcher. pageDelay paces successive
// page requests; notReady bounds the wait for analysis to start.
func NewFetcher(store call.Store, source call.SegmentSource, pageSize int32, pageDelay time.Duration, notReady retry.Policy, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		store:     store,
		source:    source,
		pageSize:  pageSize,
		pageDelay: pageDelay,
		notReady:  notReady,
		log:       log.With().Str("component", "segment-fetcher").Logger(),
	}
}

// FetchOnce runs one fetch cycle: all pages currently available for
// the session, appended dedup'd into its transcript. The cycle is best
// effort; every outcome is terminal for the cycle, never for the
// session, and callers invoke it again on their own cadence.
//
// Not-ready responses back off exponentially (2s, 4s, 8s, ...) up to
// the policy's retry cap, then the cycle gives up silently. Any
// successful page resets the retry counter.
func (f *Fetcher) FetchOnce(ctx context.Context, id string) {
	cursor := ""
	retries := 0

	for {
		page, err := f.source.ListSegments(ctx, id, f.pageSize, cursor)
		if err != nil {
			if errors.Is(err, call.ErrAnalysisNotReady) {
				retries++
				if retries > f.notReady.MaxRetries {
					f.log.Debug().Str("contact_id", id).Int("retries", retries-1).
						Msg("analysis still not ready, giving up this cycle")
					return
				}
				f.log.Debug().Str("contact_id", id).Int("retry", retries).
					Msg("analysis not ready, backing off")
				if f.notReady.Sleep(ctx, retries) != nil {
					return
				}
				continue
			}
			if ctx.Err() == nil {
				f.log.Warn().Err(err).Str("contact_id", id).Msg("segment fetch failed")
			}
			return
		}

		retries = 0
		for _, seg := range page.Segments {
			if err := f.store.AppendSegment(ctx, id, seg); err != nil {
				// Session gone; the owning connection was torn down.
				return
			}
		}
		if len(page.Segments) > 0 {
			f.log.Debug().Str("contact_id", id).Int("count", len(page.Segments)).Msg("segments fetched")
		}

		if page.NextCursor == "" {
			return
		}
		cursor = page.NextCursor

		// Pace page requests to avoid hammering the analysis source.
		timer := time.NewTimer(f.pageDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
