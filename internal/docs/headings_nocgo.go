//go:build !cgo

package docs

// scanHeadings uses the line scanner when tree-sitter is unavailable.
func scanHeadings(_ string, lines []string) []Heading {
	return scanLines(lines)
}
