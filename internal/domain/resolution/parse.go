package resolution

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawAnswer mirrors the oracle's required output contract.
type rawAnswer struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// ParseOracleOutput extracts the (field, value) pair from oracle text.
// The oracle promises machine-parseable JSON but delivers no guarantee,
// so parsing is lenient: plain JSON, fenced JSON and JSON embedded in
// prose are all accepted. ok is false when no structured answer could
// be recovered; the caller keeps the raw text in that case.
func ParseOracleOutput(raw string) (field, value string, ok bool) {
	trimmed := strings.TrimSpace(raw)

	for _, candidate := range []string{trimmed, stripFence(trimmed), embeddedObject(trimmed)} {
		if candidate == "" {
			continue
		}
		var parsed rawAnswer
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		if parsed.Field == "" {
			continue
		}
		return parsed.Field, decodeValue(parsed.Value), true
	}
	return "", "", false
}

// NormalizeField canonicalizes a field name for marker comparison
// ("press a number" and "press-a-number" classify identically). The
// answer itself keeps the field exactly as the oracle returned it.
func NormalizeField(field string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(field)), " ", "-")
}

// IsNumeric reports whether s is non-empty and consists only of
// digits, the requirement for an actionable keypress value.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func embeddedObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func decodeValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}
	var asAny any
	if err := json.Unmarshal(raw, &asAny); err == nil {
		return fmt.Sprintf("%v", asAny)
	}
	return strings.Trim(string(raw), `"`)
}
