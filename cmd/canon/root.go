package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"canon/internal/slogutil"
	"canon/internal/version"
)

var (
	verbosity int
	quiet     bool
	logLevel  string
	repoFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "canon",
	Short: "canon - governance document index and arbitration",
	Long: `canon answers questions about a repository's governance documents
(ADRs, standards, patterns) with cited evidence. Local documents are merged
with a shared baseline repository, superseded documents are resolved, and
low-durability documents are vetoed when they contradict durable guidance.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("canon version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository root (default: current directory)")
}

// cliLevel resolves the level override from flags.
// Precedence: --log-level > -v/-q > config.
func cliLevel() *slog.Level {
	var level slog.Level
	switch {
	case logLevel != "":
		level = slogutil.LevelFromString(logLevel)
	case quiet || verbosity > 0:
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	default:
		return nil
	}
	return &level
}
