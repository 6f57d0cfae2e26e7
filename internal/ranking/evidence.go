package ranking

import (
	"strings"

	"canon/internal/docs"
)

// Default quote bounds.
const (
	DefaultMinQuoteWords = 8
	DefaultMaxQuoteWords = 60
)

// Evidence is a bounded quotation backing a search answer.
type Evidence struct {
	Quote     string      `json:"quote"`
	Citation  string      `json:"citation"`
	Origin    docs.Origin `json:"origin"`
	WordCount int         `json:"wordCount"`
	Truncated bool        `json:"truncated"`
	Path      string      `json:"path"`
	Heading   string      `json:"heading,omitempty"`
}

// QuoteLimits bound the length of extracted quotes.
type QuoteLimits struct {
	MinWords int
	MaxWords int
}

// DefaultQuoteLimits returns the standard 8..60 word bounds.
func DefaultQuoteLimits() QuoteLimits {
	return QuoteLimits{MinWords: DefaultMinQuoteWords, MaxWords: DefaultMaxQuoteWords}
}

// Citation formats a reference to a document region as id#heading, where id
// is the document URI when it has one and its path otherwise.
func Citation(d *docs.Document, h *docs.Heading) string {
	id := d.Path
	if d.URI != "" {
		id = d.URI
	}
	if h == nil || h.Text == "" {
		return id
	}
	return id + "#" + h.Text
}

// ExtractEvidence picks the run of consecutive sentences in the heading's
// region that reaches limits.MinWords and matches the most query tokens.
// Ties go to the earliest run. Quotes longer than limits.MaxWords are cut
// and flagged. ok is false when the region cannot supply MinWords words.
func ExtractEvidence(d *docs.Document, h *docs.Heading, queryTokens []string, limits QuoteLimits) (Evidence, bool) {
	if h == nil {
		return Evidence{}, false
	}
	if limits.MinWords <= 0 {
		limits.MinWords = DefaultMinQuoteWords
	}
	if limits.MaxWords < limits.MinWords {
		limits.MaxWords = limits.MinWords
	}

	sentences := splitSentences(d.RegionText(*h))

	bestStart, bestEnd, bestScore := -1, -1, -1
	for i := range sentences {
		words := 0
		j := i
		for ; j < len(sentences) && words < limits.MinWords; j++ {
			words += len(sentences[j])
		}
		if words < limits.MinWords {
			break
		}
		var window []string
		for _, s := range sentences[i:j] {
			window = append(window, s...)
		}
		if score := overlap(queryTokens, Tokenize(strings.Join(window, " "))); score > bestScore {
			bestStart, bestEnd, bestScore = i, j, score
		}
	}
	if bestStart < 0 {
		return Evidence{}, false
	}

	var words []string
	for _, s := range sentences[bestStart:bestEnd] {
		words = append(words, s...)
	}
	truncated := false
	if len(words) > limits.MaxWords {
		words = words[:limits.MaxWords]
		truncated = true
	}

	return Evidence{
		Quote:     strings.Join(words, " "),
		Citation:  Citation(d, h),
		Origin:    d.Origin,
		WordCount: len(words),
		Truncated: truncated,
		Path:      d.Path,
		Heading:   h.Text,
	}, true
}

// splitSentences breaks region text into sentences of words. Fenced code,
// headings and list/quote markers are dropped; a sentence ends at terminal
// punctuation, a blank line or the start of a list item.
func splitSentences(text string) [][]string {
	var sentences [][]string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			sentences = append(sentences, cur)
			cur = nil
		}
	}

	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			flush()
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			flush()
			continue
		}
		if rest, ok := stripListMarker(trimmed); ok {
			flush()
			trimmed = rest
		}
		for _, w := range strings.Fields(trimmed) {
			cur = append(cur, w)
			if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
				flush()
			}
		}
	}
	flush()
	return sentences
}

func stripListMarker(line string) (string, bool) {
	for _, m := range []string{"- ", "* ", "+ ", "> "} {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(line[len(m):]), true
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return line, false
}
