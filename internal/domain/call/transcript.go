package call

import (
	"fmt"
	"sort"
	"strings"
)

// AssembleTranscript produces the client-facing view of a transcript:
// segments ordered by offset ascending (stable, ties keep arrival
// order) with a second dedup pass collapsing entries that share
// (participant, normalized content). The pass covers cross-cycle
// duplicates the fetcher's per-session set can miss after a reset.
// The input slice is never mutated.
func AssembleTranscript(segments []Segment) []Segment {
	ordered := make([]Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OffsetMillis < ordered[j].OffsetMillis
	})

	seen := make(map[string]struct{}, len(ordered))
	out := ordered[:0]
	for _, seg := range ordered {
		key := string(seg.Participant) + "\x00" + Fingerprint(seg.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, seg)
	}
	return out
}

// FormatTranscript renders an assembled transcript as display text, one
// "[HH:MM:SS] PARTICIPANT: content" line per segment.
func FormatTranscript(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			seg.ObservedAt.Format("15:04:05"), seg.Participant, seg.Content))
	}
	return strings.Join(lines, "\n")
}

// CallerUtterances filters an assembled transcript to the far-end
// party, the utterances eligible for prompt resolution.
func CallerUtterances(segments []Segment) []Segment {
	var out []Segment
	for _, seg := range segments {
		if seg.Participant == ParticipantCaller {
			out = append(out, seg)
		}
	}
	return out
}
