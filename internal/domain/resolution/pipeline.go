// Package resolution maps new caller utterances to structured
// field/value answers through the reasoning oracle.
package resolution

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/infrastructure/metrics"
)

// Oracle is the reasoning capability the pipeline consumes. The
// returned text should follow the instructions' output contract but is
// parsed defensively either way.
type Oracle interface {
	Infer(ctx context.Context, instructions, utterance string) (string, error)
}

// InvocationErrorValue is the answer value recorded when the oracle
// call itself fails.
const InvocationErrorValue = "Invocation error"

// Pipeline resolves each distinct caller utterance at most once per
// session.
type Pipeline struct {
	store   call.Store
	oracle  Oracle
	timeout time.Duration
	log     zerolog.Logger
}

// NewPipeline creates a resolution pipeline. timeout bounds every
// oracle invocation.
func NewPipeline(store call.Store, oracle Oracle, timeout time.Duration, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:   store,
		oracle:  oracle,
		timeout: timeout,
		log:     log.With().Str("component", "resolution-pipeline").Logger(),
	}
}

// ResolveNew runs every not-yet-answered caller utterance in the
// session's assembled transcript through the oracle, records each
// answer, and returns the last one produced (nil when nothing new was
// resolved). The answered-set gate makes resolution at-most-once per
// utterance fingerprint even with concurrent observers.
func (p *Pipeline) ResolveNew(ctx context.Context, id string) (*call.Answer, error) {
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var last *call.Answer
	for _, seg := range call.CallerUtterances(call.AssembleTranscript(sess.Transcript)) {
		first, err := p.store.MarkAnswered(ctx, id, call.Fingerprint(seg.Content))
		if err != nil {
			return last, err
		}
		if !first {
			continue
		}

		ans := p.Resolve(ctx, sess.FlowMode, sess.Context, seg.Content)
		if err := p.store.SetLastAnswer(ctx, id, ans); err != nil {
			return last, err
		}
		metrics.RecordResolution(NormalizeField(ans.Field))
		p.log.Info().
			Str("contact_id", id).
			Str("field", ans.Field).
			Str("question", seg.Content).
			Msg("utterance resolved")
		last = &ans
	}
	return last, nil
}

// Resolve decides the answer for one utterance under the session's
// flow policy. It never returns an error: oracle transport failures
// and unparseable output both degrade to answers so the session keeps
// streaming.
func (p *Pipeline) Resolve(ctx context.Context, flow call.FlowMode, callCtx map[string]string, utterance string) call.Answer {
	ans := call.Answer{
		Timestamp: time.Now(),
		Question:  utterance,
	}

	if IsTransferPrompt(utterance) {
		ans.Field = call.FieldTransferAgent
		ans.Value = "Hold or transfer detected"
		return ans
	}

	// Flow isolation is enforced locally, not just asked of the oracle:
	// a prompt offering only the other flow's menu never yields a live
	// selection.
	if matchesOtherFlowOnly(flow, utterance) {
		ans.Field = call.FieldVoiceOnly
		ans.Value = call.NoMatchValue
		return ans
	}

	inferCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := p.oracle.Infer(inferCtx, Instructions(flow, callCtx), utterance)
	metrics.ObserveOracleLatency(time.Since(start))
	if err != nil {
		p.log.Warn().Err(err).Str("utterance", utterance).Msg("oracle invocation failed")
		ans.Field = call.FieldError
		ans.Value = InvocationErrorValue
		return ans
	}

	field, value, ok := ParseOracleOutput(raw)
	if !ok {
		// Unparseable output is kept, not discarded, for audit.
		ans.Field = call.FieldUnknown
		ans.Value = raw
		return ans
	}

	ans.Field = field
	ans.Value = value

	// A keypress answer is only actionable with an all-numeric value.
	if NormalizeField(field) == call.FieldPressNumber && !IsNumeric(value) {
		ans.Field = call.FieldVoiceOnly
	}
	return ans
}
