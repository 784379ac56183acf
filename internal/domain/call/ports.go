package call

import (
	"context"
	"errors"
)

// ErrAnalysisNotReady is the distinguished "not ready" condition from
// the analysis segment source: the call exists but real-time analysis
// has not produced data yet. The fetcher retries it with backoff;
// every other failure class aborts the fetch cycle.
var ErrAnalysisNotReady = errors.New("analysis not ready")

// Control is the narrow telephony capability the core consumes.
type Control interface {
	// Initiate places an outbound call and returns the platform's
	// contact id for it.
	Initiate(ctx context.Context, destination string, callbackContext map[string]string) (string, error)

	// Describe returns the current status and attributes of a contact.
	Describe(ctx context.Context, contactID string) (StatusUpdate, error)

	// Stop ends an in-flight contact.
	Stop(ctx context.Context, contactID string) error
}

// SegmentPage is one page of analysis segments.
type SegmentPage struct {
	Segments   []Segment
	NextCursor string
}

// SegmentSource is the real-time analysis capability the core consumes.
// ListSegments returns ErrAnalysisNotReady (possibly wrapped) until the
// platform has started analyzing the contact.
type SegmentSource interface {
	ListSegments(ctx context.Context, contactID string, pageSize int32, cursor string) (*SegmentPage, error)
}

// PollerLauncher starts the background status watch for a new session.
// Implemented by the worker package and injected to break the
// domain→worker dependency.
type PollerLauncher interface {
	Launch(id string)
}
