package slogutil

import (
	"io"
	"log/slog"
	"os"

	"canon/internal/config"
	"canon/internal/paths"
)

// LoggerFactory creates loggers for the CLI and the MCP server.
// Precedence for levels: CLI flag > config > info.
type LoggerFactory struct {
	repoRoot string
	config   *config.Config
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory.
// cliLevel is nil when no CLI override was given.
func NewLoggerFactory(repoRoot string, cfg *config.Config, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		repoRoot: repoRoot,
		config:   cfg,
		cliLevel: cliLevel,
	}
}

// CLILogger writes to stderr so command output on stdout stays machine-readable.
func (f *LoggerFactory) CLILogger() *slog.Logger {
	return NewFormattedLogger(os.Stderr, f.config.Logging.Format, f.effectiveLevel())
}

// MCPLogger creates a logger for the MCP server.
// stdout belongs to the protocol, so it writes to <repoRoot>/.canon/logs/mcp.log.
func (f *LoggerFactory) MCPLogger() *slog.Logger {
	if f.repoRoot == "" {
		return NewDiscardLogger()
	}
	if _, err := paths.EnsureLogsDir(f.repoRoot); err != nil {
		return NewDiscardLogger()
	}

	logger, file, err := NewFileLogger(paths.MCPLogPath(f.repoRoot), f.effectiveLevel())
	if err != nil {
		return NewDiscardLogger()
	}
	f.closers = append(f.closers, file)
	return logger
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
