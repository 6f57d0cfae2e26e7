// Package ranking scores documents against a query and extracts quotable evidence.
package ranking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = 3

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"how": true, "its": true, "may": true, "who": true, "why": true, "did": true,
	"get": true, "this": true, "that": true, "with": true, "from": true, "they": true,
	"will": true, "what": true, "when": true, "where": true, "which": true, "there": true,
	"their": true, "them": true, "then": true, "than": true, "into": true, "been": true,
	"were": true, "does": true, "should": true, "would": true, "could": true, "about": true,
	"also": true, "each": true, "some": true, "such": true, "only": true, "over": true,
	"your": true, "these": true, "those": true, "being": true, "very": true,
}

// Tokenize lowercases text, treats punctuation as separators, and drops short
// tokens and stopwords. Order and duplicates are preserved.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLength || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// QueryTokens tokenizes a query and removes duplicates, keeping first occurrence order.
func QueryTokens(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// overlap counts distinct query tokens present in tokens.
func overlap(queryTokens []string, tokens []string) int {
	if len(queryTokens) == 0 || len(tokens) == 0 {
		return 0
	}
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}
	n := 0
	for _, q := range queryTokens {
		if present[q] {
			n++
		}
	}
	return n
}
