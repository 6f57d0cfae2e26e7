package docs

import "strings"

// ExtractHeadings finds the ATX headings of body outside fenced code blocks.
// The returned regions are ordered, non-overlapping and cover every body line.
func ExtractHeadings(body string) []Heading {
	lines := splitLines(body)
	if len(lines) == 0 {
		return nil
	}

	headings := scanHeadings(body, lines)

	if len(headings) == 0 || headings[0].StartLine > 1 {
		preamble := Heading{Level: 0, StartLine: 1}
		headings = append([]Heading{preamble}, headings...)
	}

	for i := range headings {
		if i+1 < len(headings) {
			headings[i].EndLine = headings[i+1].StartLine - 1
		} else {
			headings[i].EndLine = len(lines)
		}
	}
	return headings
}

// FirstH1 returns the text of the first level-1 heading, or "".
func FirstH1(headings []Heading) string {
	for _, h := range headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// trimClosing drops an optional closing run of '#' from heading text.
func trimClosing(text string) string {
	text = strings.TrimSpace(text)
	if closed := strings.TrimRight(text, "#"); closed != text {
		if closed == "" || strings.HasSuffix(closed, " ") || strings.HasSuffix(closed, "\t") {
			text = strings.TrimSpace(closed)
		}
	}
	return text
}
