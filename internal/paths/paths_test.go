package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStateLayout(t *testing.T) {
	root := filepath.Join("/repo", "root")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"state dir", StateDir(root), filepath.Join(root, ".canon")},
		{"index", IndexPath(root), filepath.Join(root, ".canon", "index.json")},
		{"cache db", CacheDBPath(root), filepath.Join(root, ".canon", "cache.db")},
		{"rules", RulesPath(root), filepath.Join(root, ".canon", "rules.toml")},
		{"logs", LogsDir(root), filepath.Join(root, ".canon", "logs")},
		{"mcp log", MCPLogPath(root), filepath.Join(root, ".canon", "logs", "mcp.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestEnsureLogsDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureLogsDir(root)
	if err != nil {
		t.Fatalf("EnsureLogsDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("logs path is not a directory")
	}

	// Idempotent
	if _, err := EnsureLogsDir(root); err != nil {
		t.Errorf("second EnsureLogsDir failed: %v", err)
	}
}

func TestEnsureStateDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureStateDir(root)
	if err != nil {
		t.Fatalf("EnsureStateDir failed: %v", err)
	}
	if !strings.HasSuffix(dir, StateDirName) {
		t.Errorf("expected dir to end with %s, got %s", StateDirName, dir)
	}
}

func TestCanonicalizePath(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "canon", "retry.md")
	if err := os.MkdirAll(filepath.Dir(testFile), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("# Retry"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	canonical, err := CanonicalizePath(testFile, tempDir)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if canonical != "canon/retry.md" {
		t.Errorf("Expected canon/retry.md, got %s", canonical)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"canon/a.md", "canon/a.md"},
		{"./canon/a.md", "canon/a.md"},
		{"/canon/a.md", "canon/a.md"},
		{`canon\a.md`, "canon/a.md"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsWithinRepo(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "docs", "guide.md")
	if err := os.MkdirAll(filepath.Dir(testFile), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("# Guide"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !IsWithinRepo(testFile, tempDir) {
		t.Error("Expected file to be within repo")
	}

	outsideFile := filepath.Join(filepath.Dir(tempDir), "outside.md")
	if IsWithinRepo(outsideFile, tempDir) {
		t.Error("Expected file outside repo to return false")
	}
}
