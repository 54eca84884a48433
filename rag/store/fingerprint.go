package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeFunc turns raw chunk text into the canonical form that is
// fingerprinted for dedup. Two chunks normalizing to the same bytes are
// considered the same content.
type NormalizeFunc func(string) string

// NormalizeWhitespace collapses all runs of whitespace to single spaces and
// trims the ends. This is the default dedup normalization.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeWhitespaceAndCase additionally lowercases the text, so chunks
// differing only in case are merged.
func NormalizeWhitespaceAndCase(s string) string {
	return strings.ToLower(NormalizeWhitespace(s))
}

// Fingerprint returns the hex SHA-256 digest of the normalized text. The
// digest doubles as the document identifier, so identity is stable across
// process restarts.
func Fingerprint(text string, normalize NormalizeFunc) string {
	if normalize == nil {
		normalize = NormalizeWhitespace
	}
	sum := sha256.Sum256([]byte(normalize(text)))
	return hex.EncodeToString(sum[:])
}
