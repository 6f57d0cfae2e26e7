package docs

import "strings"

// scanLines is the line scanner: ATX headings outside ``` and ~~~ fences.
func scanLines(lines []string) []Heading {
	var headings []Heading
	var fence string
	for i, line := range lines {
		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case marker[0] == fence[0] && len(marker) >= len(fence) && isBareFence(line, marker):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		if level, text, ok := parseATX(line); ok {
			headings = append(headings, Heading{Level: level, Text: text, StartLine: i + 1})
		}
	}
	return headings
}

// parseATX recognizes up to three spaces of indentation, 1-6 '#', a space
// or tab, then non-empty text. A closing run of '#' is dropped.
func parseATX(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(trimmed) {
		return 0, "", false
	}
	if trimmed[level] != ' ' && trimmed[level] != '\t' {
		return 0, "", false
	}
	text := trimClosing(trimmed[level+1:])
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

func isBareFence(line, marker string) bool {
	rest := strings.TrimLeft(line, " ")[len(marker):]
	return strings.TrimSpace(rest) == ""
}

// fenceMarker returns the run of ``` or ~~~ opening line, or "".
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}
