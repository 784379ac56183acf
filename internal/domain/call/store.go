package call

import "context"

// Store is the single source of truth for in-flight sessions. All
// methods are safe for concurrent invocation from the poller, fetcher
// and broadcaster tasks operating on the same session id.
type Store interface {
	// Create registers a new session in INITIATED state. Returns
	// ErrSessionAlreadyExists (from the implementing package) if the id
	// is already registered.
	Create(ctx context.Context, id string, callCtx map[string]string, flow FlowMode) error

	// Get returns a deep-copied snapshot of the session, or a not-found
	// error. Callers never receive a default record for an unknown id.
	Get(ctx context.Context, id string) (*Session, error)

	// MergeStatus merges a status read into the session additively:
	// attribute keys are merged rather than replaced, and a terminal
	// status is never overwritten by a non-terminal re-read.
	MergeStatus(ctx context.Context, id string, update StatusUpdate) error

	// AppendSegment inserts the segment unless an existing segment
	// shares (participant, normalized content). Idempotent.
	AppendSegment(ctx context.Context, id string, seg Segment) error

	// MarkAnswered records an utterance fingerprint and reports whether
	// this call was the first to record it. Atomic check-and-set.
	MarkAnswered(ctx context.Context, id string, fingerprint string) (bool, error)

	// MarkFetcherStarted reports whether this call was the first to
	// claim the session's segment-fetch slot. Guards the one-time
	// fetcher launch.
	MarkFetcherStarted(ctx context.Context, id string) (bool, error)

	// SetLastAnswer stores the most recent resolution answer.
	SetLastAnswer(ctx context.Context, id string, ans Answer) error

	// Remove releases all session memory. Safe to call multiple times.
	Remove(ctx context.Context, id string)
}
