package resolution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openivr/call-server/internal/domain/call"
)

// Menu vocabulary per flow. The prompt instructions forbid the oracle
// from answering the other flow's menu, and matchesOtherFlowOnly
// enforces the same rule deterministically on this side.
var flowVocabulary = map[call.FlowMode][]string{
	call.FlowClaims:      {"claim", "claims"},
	call.FlowEligibility: {"eligibility", "benefits", "coverage"},
}

// Phrases indicating the IVR is handing off to a human.
var transferPhrases = []string{
	"transfer",
	"transferring",
	"please hold",
	"hold while",
	"placing you on hold",
	"connect you to",
	"connecting you",
	"representative",
	"speak to an agent",
	"next available agent",
}

// Terminal phrases that end a call. These must never be read as a
// transfer even when they appear alongside hold/transfer wording.
var terminalPhrases = []string{
	"goodbye",
	"good bye",
	"thank you for calling",
	"have a great day",
	"this call has ended",
}

// Instructions builds the flow-specific instruction set handed to the
// oracle together with one utterance. The oracle must return exactly
// {"field": ..., "value": ...} as JSON.
func Instructions(flow call.FlowMode, callCtx map[string]string) string {
	var b strings.Builder

	b.WriteString("You are navigating an insurance phone IVR on behalf of a caller. ")
	b.WriteString("Given one IVR prompt, decide what to answer or press using only the caller data below.\n\n")

	b.WriteString("Caller data:\n")
	keys := make([]string, 0, len(callCtx))
	for k := range callCtx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, callCtx[k])
	}

	b.WriteString("\nRespond with JSON only, exactly {\"field\": ..., \"value\": ...}.\n")
	b.WriteString("Use field \"" + call.FieldPressNumber + "\" with an all-numeric value for keypad menus, ")
	b.WriteString("field \"" + call.FieldVoiceOnly + "\" when the answer must be spoken, ")
	b.WriteString("or the matching caller data key when the prompt asks for a data value.\n")
	fmt.Fprintf(&b, "When no caller data answers the prompt, use value %q.\n", call.NoMatchValue)

	switch flow {
	case call.FlowClaims:
		b.WriteString("\nThis call is strictly about CLAIMS. ")
		fmt.Fprintf(&b, "Never select an eligibility, benefits or coverage menu option; for those prompts return value %q.\n", call.NoMatchValue)
	case call.FlowEligibility:
		b.WriteString("\nThis call is strictly about ELIGIBILITY. ")
		fmt.Fprintf(&b, "Never select a claims menu option; for those prompts return value %q.\n", call.NoMatchValue)
	}

	return b.String()
}

// IsTransferPrompt reports whether the utterance indicates a hold or
// hand-off to a human agent. Terminal phrases win: an utterance that
// says goodbye is the call ending, not a transfer, no matter what else
// it contains.
func IsTransferPrompt(utterance string) bool {
	normalized := call.NormalizeContent(utterance)
	for _, phrase := range terminalPhrases {
		if strings.Contains(normalized, phrase) {
			return false
		}
	}
	for _, phrase := range transferPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// matchesOtherFlowOnly reports whether the utterance offers only the
// other flow's menu: it mentions the other flow's vocabulary and none
// of the current flow's. Such prompts must never yield a live
// selection under the current flow.
func matchesOtherFlowOnly(flow call.FlowMode, utterance string) bool {
	normalized := call.NormalizeContent(utterance)

	mentions := func(f call.FlowMode) bool {
		for _, word := range flowVocabulary[f] {
			if strings.Contains(normalized, word) {
				return true
			}
		}
		return false
	}

	var other call.FlowMode
	switch flow {
	case call.FlowClaims:
		other = call.FlowEligibility
	case call.FlowEligibility:
		other = call.FlowClaims
	default:
		return false
	}

	return mentions(other) && !mentions(flow)
}
