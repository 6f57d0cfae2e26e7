package docs

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// frontmatter holds the recognized keys. Tag-like fields accept either a
// list or a comma-separated string.
type frontmatter struct {
	URI              string `yaml:"uri" toml:"uri"`
	Title            string `yaml:"title" toml:"title"`
	Subtitle         string `yaml:"subtitle" toml:"subtitle"`
	Tags             any    `yaml:"tags" toml:"tags"`
	Authority        string `yaml:"authority" toml:"authority"`
	AuthorityBand    string `yaml:"authorityBand" toml:"authorityBand"`
	Intent           string `yaml:"intent" toml:"intent"`
	Evidence         string `yaml:"evidence" toml:"evidence"`
	EvidenceStrength string `yaml:"evidenceStrength" toml:"evidenceStrength"`
	Supersedes       string `yaml:"supersedes" toml:"supersedes"`
	ConflictsWith    any    `yaml:"conflicts_with" toml:"conflicts_with"`
}

func (fm *frontmatter) band() string {
	if fm.AuthorityBand != "" {
		return fm.AuthorityBand
	}
	return fm.Authority
}

func (fm *frontmatter) evidence() string {
	if fm.EvidenceStrength != "" {
		return fm.EvidenceStrength
	}
	return fm.Evidence
}

// splitFrontmatter separates a leading fenced block from the body.
// Content without a complete fence is all body.
func splitFrontmatter(content string) (FrontmatterFormat, string, string) {
	var format FrontmatterFormat
	var closers []string
	switch {
	case strings.HasPrefix(content, "---\n"):
		format, closers = FrontmatterYAML, []string{"---", "..."}
	case strings.HasPrefix(content, "+++\n"):
		format, closers = FrontmatterTOML, []string{"+++"}
	default:
		return FrontmatterNone, "", content
	}

	rest := content[4:]
	offset := 0
	for offset <= len(rest) {
		end := strings.IndexByte(rest[offset:], '\n')
		var line string
		if end < 0 {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+end]
		}
		for _, c := range closers {
			if strings.TrimRight(line, " \t") == c {
				body := ""
				if end >= 0 {
					body = rest[offset+end+1:]
				}
				return format, rest[:offset], body
			}
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return FrontmatterNone, "", content
}

func parseFrontmatter(format FrontmatterFormat, raw string) (*frontmatter, error) {
	var fm frontmatter
	if strings.TrimSpace(raw) == "" {
		return &fm, nil
	}
	switch format {
	case FrontmatterYAML:
		if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, fmt.Errorf("invalid YAML frontmatter: %w", err)
		}
	case FrontmatterTOML:
		if err := toml.Unmarshal([]byte(raw), &fm); err != nil {
			return nil, fmt.Errorf("invalid TOML frontmatter: %w", err)
		}
	}
	return &fm, nil
}

// stringList accepts a scalar (comma separated) or a list and returns trimmed,
// non-empty, de-duplicated values in input order.
func stringList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(t)}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
