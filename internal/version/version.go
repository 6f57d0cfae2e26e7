// Package version provides centralized version information for canon.
package version

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X canon/internal/version.Version=1.0.0 -X canon/internal/version.Commit=abc123"
var (
	// Version is the semantic version of canon
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// IndexSchemaVersion is bumped whenever the persisted index layout changes.
// A persisted index with a different version is always rebuilt.
const IndexSchemaVersion = 3

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "canon version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
