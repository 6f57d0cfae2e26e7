// Package paths describes the .canon state directory of a governed repository
// and normalizes repo-relative paths.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-repository state directory.
	StateDirName = ".canon"
	// IndexFileName is the persisted index snapshot.
	IndexFileName = "index.json"
	// CacheDBName is the SQLite blob store backing the baseline cache.
	CacheDBName = "cache.db"
	// RulesFileName holds classification rule overrides.
	RulesFileName = "rules.toml"
	// LogsSubdir holds log files written by long-running commands.
	LogsSubdir = "logs"
)

// StateDir returns <repoRoot>/.canon.
func StateDir(repoRoot string) string {
	return filepath.Join(repoRoot, StateDirName)
}

// IndexPath returns the location of the persisted index snapshot.
func IndexPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), IndexFileName)
}

// CacheDBPath returns the location of the baseline blob store.
func CacheDBPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), CacheDBName)
}

// RulesPath returns the location of the classification rule overrides.
func RulesPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), RulesFileName)
}

// LogsDir returns the log directory.
func LogsDir(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), LogsSubdir)
}

// MCPLogPath returns the MCP server log file.
func MCPLogPath(repoRoot string) string {
	return filepath.Join(LogsDir(repoRoot), "mcp.log")
}

// EnsureStateDir creates the state directory if needed and returns it.
func EnsureStateDir(repoRoot string) (string, error) {
	dir := StateDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureLogsDir creates the log directory if needed and returns it.
func EnsureLogsDir(repoRoot string) (string, error) {
	dir := LogsDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		repoRootResolved = repoRoot
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts separators to forward slashes and strips a leading "./" or "/".
func NormalizePath(path string) string {
	p := strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.TrimLeft(p, "/")
}
