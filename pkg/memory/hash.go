package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases content, collapses runs of whitespace to a single
// space and trims the result. Equal normalized text implies equal hash.
func Normalize(content string) string {
	if content == "" {
		return ""
	}

	normalized := strings.ToLower(content)
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// ContentHash returns the SHA-256 hex digest of the normalized content,
// used for exact-duplicate detection. Empty content hashes to "".
func ContentHash(content string) string {
	normalized := Normalize(content)
	if normalized == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
