package resolution_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/domain/resolution"
	"github.com/openivr/call-server/internal/infrastructure/store"
)

// mockOracle is a func-backed resolution.Oracle.
type mockOracle struct {
	mu        sync.Mutex
	calls     int
	InferFunc func(ctx context.Context, instructions, utterance string) (string, error)
}

func (m *mockOracle) Infer(ctx context.Context, instructions, utterance string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.InferFunc != nil {
		return m.InferFunc(ctx, instructions, utterance)
	}
	return `{"field": "voice-only", "value": "No matching data found"}`, nil
}

func (m *mockOracle) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestSession(t *testing.T, st call.Store, flow call.FlowMode) string {
	t.Helper()
	id := "contact-" + t.Name()
	if err := st.Create(context.Background(), id, map[string]string{"member_id": "A12345"}, flow); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return id
}

func TestPipelineResolve(t *testing.T) {
	tests := []struct {
		name      string
		flow      call.FlowMode
		utterance string
		oracle    *mockOracle
		wantField string
		wantValue string
		// wantOracleCalls guards the deterministic short-circuits.
		wantOracleCalls int
	}{
		{
			name:            "transfer prompt short-circuits",
			flow:            call.FlowClaims,
			utterance:       "Please hold while we connect you to a representative.",
			oracle:          &mockOracle{},
			wantField:       call.FieldTransferAgent,
			wantValue:       "Hold or transfer detected",
			wantOracleCalls: 0,
		},
		{
			name:            "other flow menu never selected under claims",
			flow:            call.FlowClaims,
			utterance:       "For eligibility and benefits, press two.",
			oracle:          &mockOracle{},
			wantField:       call.FieldVoiceOnly,
			wantValue:       call.NoMatchValue,
			wantOracleCalls: 0,
		},
		{
			name:            "claims menu never selected under eligibility",
			flow:            call.FlowEligibility,
			utterance:       "To file a claim, press one.",
			oracle:          &mockOracle{},
			wantField:       call.FieldVoiceOnly,
			wantValue:       call.NoMatchValue,
			wantOracleCalls: 0,
		},
		{
			name:      "oracle failure degrades to error answer",
			flow:      call.FlowClaims,
			utterance: "Please enter your member ID.",
			oracle: &mockOracle{InferFunc: func(ctx context.Context, _, _ string) (string, error) {
				return "", errors.New("upstream 500")
			}},
			wantField:       call.FieldError,
			wantValue:       resolution.InvocationErrorValue,
			wantOracleCalls: 1,
		},
		{
			name:      "unparseable output kept verbatim as unknown",
			flow:      call.FlowClaims,
			utterance: "Say or enter your date of birth.",
			oracle: &mockOracle{InferFunc: func(ctx context.Context, _, _ string) (string, error) {
				return "I think the date of birth is January 2nd.", nil
			}},
			wantField:       call.FieldUnknown,
			wantValue:       "I think the date of birth is January 2nd.",
			wantOracleCalls: 1,
		},
		{
			name:      "keypress answer passes through",
			flow:      call.FlowClaims,
			utterance: "For claims, press one.",
			oracle: &mockOracle{InferFunc: func(ctx context.Context, _, _ string) (string, error) {
				return `{"field": "press-a-number", "value": "1"}`, nil
			}},
			wantField:       "press-a-number",
			wantValue:       "1",
			wantOracleCalls: 1,
		},
		{
			name:      "non-numeric keypress downgraded to voice-only",
			flow:      call.FlowClaims,
			utterance: "Press the pound key or say representative.",
			oracle: &mockOracle{InferFunc: func(ctx context.Context, _, _ string) (string, error) {
				return `{"field": "press a number", "value": "pound"}`, nil
			}},
			wantField:       call.FieldVoiceOnly,
			wantValue:       "pound",
			wantOracleCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore(zerolog.Nop())
			p := resolution.NewPipeline(st, tt.oracle, time.Second, zerolog.Nop())

			ans := p.Resolve(context.Background(), tt.flow, map[string]string{"member_id": "A12345"}, tt.utterance)

			if ans.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ans.Field, tt.wantField)
			}
			if ans.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", ans.Value, tt.wantValue)
			}
			if ans.Question != tt.utterance {
				t.Errorf("question = %q, want the utterance back", ans.Question)
			}
			if got := tt.oracle.callCount(); got != tt.wantOracleCalls {
				t.Errorf("oracle calls = %d, want %d", got, tt.wantOracleCalls)
			}
		})
	}
}

func TestPipelineResolveNew_AtMostOncePerUtterance(t *testing.T) {
	st := store.NewMemoryStore(zerolog.Nop())
	oracle := &mockOracle{InferFunc: func(ctx context.Context, _, _ string) (string, error) {
		return `{"field": "press-a-number", "value": "1"}`, nil
	}}
	p := resolution.NewPipeline(st, oracle, time.Second, zerolog.Nop())

	id := newTestSession(t, st, call.FlowClaims)
	ctx := context.Background()

	mustAppend := func(s call.Segment) {
		t.Helper()
		if err := st.AppendSegment(ctx, id, s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	mustAppend(call.Segment{Participant: call.ParticipantSystem, Content: "For claims press one", OffsetMillis: 100})
	mustAppend(call.Segment{Participant: call.ParticipantCaller, Content: "Enter your member ID", OffsetMillis: 200})

	ans, err := p.ResolveNew(ctx, id)
	if err != nil {
		t.Fatalf("ResolveNew: %v", err)
	}
	if ans == nil {
		t.Fatal("expected an answer for the new caller utterance")
	}
	if oracle.callCount() != 1 {
		t.Fatalf("oracle calls = %d, want 1 (system segments are never resolved)", oracle.callCount())
	}

	// Same transcript again: nothing new to resolve.
	ans, err = p.ResolveNew(ctx, id)
	if err != nil {
		t.Fatalf("ResolveNew: %v", err)
	}
	if ans != nil {
		t.Errorf("expected nil answer on a repeat pass, got %+v", ans)
	}
	if oracle.callCount() != 1 {
		t.Errorf("oracle calls = %d after repeat pass, want still 1", oracle.callCount())
	}

	// A case/whitespace variant of an answered utterance stays answered.
	mustAppend(call.Segment{Participant: call.ParticipantCaller, Content: "  enter your   MEMBER id ", OffsetMillis: 300})
	if _, err := p.ResolveNew(ctx, id); err != nil {
		t.Fatalf("ResolveNew: %v", err)
	}
	if oracle.callCount() != 1 {
		t.Errorf("oracle calls = %d after variant, want still 1", oracle.callCount())
	}

	sess, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.LastAnswer == nil || sess.LastAnswer.Field != "press-a-number" {
		t.Errorf("last answer not recorded: %+v", sess.LastAnswer)
	}
}

func TestPipelineResolveNew_ConcurrentObservers(t *testing.T) {
	st := store.NewMemoryStore(zerolog.Nop())
	oracle := &mockOracle{}
	p := resolution.NewPipeline(st, oracle, time.Second, zerolog.Nop())

	id := newTestSession(t, st, call.FlowClaims)
	ctx := context.Background()
	if err := st.AppendSegment(ctx, id, call.Segment{Participant: call.ParticipantCaller, Content: "Enter your member ID", OffsetMillis: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.ResolveNew(ctx, id)
		}()
	}
	wg.Wait()

	if got := oracle.callCount(); got != 1 {
		t.Errorf("oracle calls = %d under concurrent observers, want 1", got)
	}
}
