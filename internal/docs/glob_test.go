package docs

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/*.md", "a.md", true},
		{"**/*.md", "canon/a.md", true},
		{"**/*.md", "canon/deep/a.md", true},
		{"**/*.md", "canon/a.txt", false},
		{"canon/*.md", "canon/a.md", true},
		{"canon/*.md", "canon/x/a.md", false},
		{".git/**", ".git/config", true},
		{".git/**", ".git", true},
		{"docs/**/draft-?.md", "docs/a/b/draft-1.md", true},
		{"docs/[ab].md", "docs/c.md", false},
	}
	for _, tt := range tests {
		if got := MatchGlob(tt.pattern, tt.name); got != tt.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

func TestDirExcluded(t *testing.T) {
	exclude := []string{"node_modules/**", "**/vendor/**"}
	if !dirExcluded(exclude, "node_modules") {
		t.Error("node_modules should be excluded")
	}
	if !dirExcluded(exclude, "svc/vendor") {
		t.Error("nested vendor should be excluded")
	}
	if dirExcluded(exclude, "canon") {
		t.Error("canon should not be excluded")
	}
}
