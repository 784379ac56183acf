package call

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeContent canonicalizes segment text for dedup comparison:
// surrounding whitespace trimmed, internal whitespace runs collapsed to
// a single space, lowercased. Case and spacing variants of the same
// utterance normalize to the same string.
func NormalizeContent(content string) string {
	return strings.ToLower(strings.Join(strings.Fields(content), " "))
}

// Fingerprint returns the SHA-256 hex digest of the normalized content.
// It is the dedup key for segments and the at-most-once key for answers.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}
