package docs

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// PreviewLength is the number of characters kept in ContentPreview.
const PreviewLength = 240

// NormalizeWhitespace collapses all whitespace runs to single spaces and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContentHash returns the first 8 hex chars of the blake2b-256 digest of the
// whitespace-normalized body.
func ContentHash(body string) string {
	sum := blake2b.Sum256([]byte(NormalizeWhitespace(body)))
	return hex.EncodeToString(sum[:])[:8]
}

// Preview returns the first PreviewLength characters of the normalized body.
func Preview(body string) string {
	norm := []rune(NormalizeWhitespace(body))
	if len(norm) > PreviewLength {
		norm = norm[:PreviewLength]
	}
	return string(norm)
}

func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	lines := strings.Split(body, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// normalizeNewlines converts CRLF and CR line endings to LF and drops a UTF-8 BOM.
func normalizeNewlines(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
