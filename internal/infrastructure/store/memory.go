// Package store holds the in-memory session store.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/infrastructure/metrics"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session that already exists.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// record is the mutable per-session state. Its mutex linearizes merges
// and appends for one session without serializing unrelated sessions.
type record struct {
	mu             sync.Mutex
	sess           call.Session
	segmentKeys    map[string]struct{}
	answered       map[string]struct{}
	fetcherStarted bool
}

// MemoryStore is the process-wide call.Store. The outer RWMutex guards
// only the session map; all per-session mutation happens under the
// record's own mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*record
	log      zerolog.Logger
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*record),
		log:      log.With().Str("component", "session-store").Logger(),
	}
}

var _ call.Store = (*MemoryStore)(nil)

// Create registers a new session in INITIATED state.
func (s *MemoryStore) Create(ctx context.Context, id string, callCtx map[string]string, flow call.FlowMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return ErrSessionAlreadyExists
	}

	now := time.Now()
	contextCopy := make(map[string]string, len(callCtx))
	for k, v := range callCtx {
		contextCopy[k] = v
	}

	s.sessions[id] = &record{
		sess: call.Session{
			ID:         id,
			Status:     call.StatusInitiated,
			FlowMode:   flow,
			Context:    contextCopy,
			Attributes: make(map[string]string),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		segmentKeys: make(map[string]struct{}),
		answered:    make(map[string]struct{}),
	}
	metrics.RecordSessionCreated()
	s.log.Debug().Str("contact_id", id).Str("flow_mode", string(flow)).Msg("session created")
	return nil
}

// Get returns a deep-copied snapshot of the session.
func (s *MemoryStore) Get(ctx context.Context, id string) (*call.Session, error) {
	rec, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return copySession(&rec.sess), nil
}

// MergeStatus merges one status read into the session. The merge is
// additive: attribute keys accumulate across reads and a terminal
// status is never regressed by a late non-terminal read.
func (s *MemoryStore) MergeStatus(ctx context.Context, id string, update call.StatusUpdate) error {
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if update.Status != "" && !rec.sess.Status.IsTerminal() {
		rec.sess.Status = update.Status
	}
	for k, v := range update.Attributes {
		rec.sess.Attributes[k] = v
	}
	rec.sess.UpdatedAt = time.Now()
	return nil
}

// AppendSegment inserts the segment unless one with the same
// (participant, normalized content) already exists.
func (s *MemoryStore) AppendSegment(ctx context.Context, id string, seg call.Segment) error {
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	key := string(seg.Participant) + "\x00" + call.Fingerprint(seg.Content)
	if _, dup := rec.segmentKeys[key]; dup {
		metrics.RecordSegment(false)
		return nil
	}
	rec.segmentKeys[key] = struct{}{}
	rec.sess.Transcript = append(rec.sess.Transcript, seg)
	rec.sess.UpdatedAt = time.Now()
	metrics.RecordSegment(true)
	return nil
}

// MarkAnswered records the fingerprint, returning true only on the
// first call for that fingerprint within the session.
func (s *MemoryStore) MarkAnswered(ctx context.Context, id string, fingerprint string) (bool, error) {
	rec, err := s.lookup(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, done := rec.answered[fingerprint]; done {
		return false, nil
	}
	rec.answered[fingerprint] = struct{}{}
	return true, nil
}

// MarkFetcherStarted claims the session's one-time fetcher launch slot.
func (s *MemoryStore) MarkFetcherStarted(ctx context.Context, id string) (bool, error) {
	rec, err := s.lookup(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.fetcherStarted {
		return false, nil
	}
	rec.fetcherStarted = true
	return true, nil
}

// SetLastAnswer stores the most recent resolution answer.
func (s *MemoryStore) SetLastAnswer(ctx context.Context, id string, ans call.Answer) error {
	rec, err := s.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.sess.LastAnswer = &ans
	rec.sess.UpdatedAt = time.Now()
	return nil
}

// Remove releases all session memory. Idempotent.
func (s *MemoryStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return
	}
	delete(s.sessions, id)
	metrics.RecordSessionRemoved()
	s.log.Debug().Str("contact_id", id).Msg("session removed")
}

func (s *MemoryStore) lookup(id string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return rec, nil
}

func copySession(sess *call.Session) *call.Session {
	out := *sess

	out.Context = make(map[string]string, len(sess.Context))
	for k, v := range sess.Context {
		out.Context[k] = v
	}
	out.Attributes = make(map[string]string, len(sess.Attributes))
	for k, v := range sess.Attributes {
		out.Attributes[k] = v
	}
	out.Transcript = make([]call.Segment, len(sess.Transcript))
	copy(out.Transcript, sess.Transcript)
	if sess.LastAnswer != nil {
		ans := *sess.LastAnswer
		out.LastAnswer = &ans
	}
	return &out
}
