//go:build cgo

package docs

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
)

// scanHeadings parses body with the tree-sitter markdown block grammar.
// Only top-level ATX headings count; headings nested in quotes or lists and
// anything inside fenced_code_block are skipped. A parse failure falls back
// to the line scanner.
func scanHeadings(body string, lines []string) []Heading {
	source := []byte(body)
	root, err := sitter.ParseCtx(context.Background(), source, tree_sitter_markdown.GetLanguage())
	if err != nil || root == nil {
		return scanLines(lines)
	}

	var headings []Heading
	walkSections(root, source, &headings)
	return headings
}

// walkSections descends through document and section nodes only.
func walkSections(node *sitter.Node, source []byte, out *[]Heading) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "section":
			walkSections(child, source, out)
		case "atx_heading":
			if h, ok := atxHeading(child, source); ok {
				*out = append(*out, h)
			}
		}
	}
}

func atxHeading(node *sitter.Node, source []byte) (Heading, bool) {
	level := 0
	for i := 0; i < int(node.ChildCount()); i++ {
		t := node.Child(i).Type()
		if strings.HasPrefix(t, "atx_h") && strings.HasSuffix(t, "_marker") {
			level = int(t[len("atx_h")] - '0')
			break
		}
	}
	if level < 1 || level > 6 {
		return Heading{}, false
	}

	content := node.ChildByFieldName("heading_content")
	if content == nil {
		return Heading{}, false
	}
	text := trimClosing(content.Content(source))
	if text == "" {
		return Heading{}, false
	}
	return Heading{Level: level, Text: text, StartLine: int(node.StartPoint().Row) + 1}, true
}
