package docs

import (
	"path"
	"strings"
)

// MatchGlob reports whether a slash-separated relative path matches pattern.
// Segments use path.Match syntax; a "**" segment matches zero or more segments.
func MatchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

// matchAny reports whether name matches any pattern.
func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if MatchGlob(p, name) {
			return true
		}
	}
	return false
}

// dirExcluded reports whether a directory (and so its whole subtree) is excluded.
func dirExcluded(patterns []string, dir string) bool {
	for _, p := range patterns {
		if MatchGlob(p, dir) {
			return true
		}
		if trimmed, ok := strings.CutSuffix(p, "/**"); ok && MatchGlob(trimmed, dir) {
			return true
		}
	}
	return false
}
