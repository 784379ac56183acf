// Package retry defines the backoff policies shared by the status
// poller and the segment fetcher.
package retry

import (
	"context"
	"math"
	"time"
)

// Policy defines a bounded retry strategy.
type Policy struct {
	MaxRetries      int           `json:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffStrategy BackoffType   `json:"backoff_strategy"`
}

// BackoffType identifies the backoff strategy.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"       // Same delay each time
	BackoffExponential BackoffType = "exponential" // Delay doubles each time
)

// StatusPollPolicy paces the status poller: a fixed 2 second spacing
// for up to 60 reads.
func StatusPollPolicy() Policy {
	return Policy{
		MaxRetries:      60,
		InitialDelay:    2 * time.Second,
		MaxDelay:        2 * time.Second,
		BackoffStrategy: BackoffFixed,
	}
}

// AnalysisNotReadyPolicy paces segment fetches while the analysis
// source reports data not ready: 2s, 4s, 8s, ... for up to 10 attempts.
func AnalysisNotReadyPolicy() Policy {
	return Policy{
		MaxRetries:      10,
		InitialDelay:    2 * time.Second,
		MaxDelay:        10 * time.Minute,
		BackoffStrategy: BackoffExponential,
	}
}

// CalculateDelay calculates the delay before the given attempt
// (1-based).
func (p Policy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var delay time.Duration
	switch p.BackoffStrategy {
	case BackoffExponential:
		delay = p.InitialDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	default:
		delay = p.InitialDelay
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Sleep waits for the attempt's delay or until the context is
// cancelled, whichever comes first.
func (p Policy) Sleep(ctx context.Context, attempt int) error {
	delay := p.CalculateDelay(attempt)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
