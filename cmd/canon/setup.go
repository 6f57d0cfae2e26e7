package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"canon/internal/baseline"
	"canon/internal/config"
	"canon/internal/docs"
	"canon/internal/paths"
	"canon/internal/query"
	"canon/internal/slogutil"
)

// app bundles what every command needs.
type app struct {
	repoRoot string
	config   *config.Config
	logs     *slogutil.LoggerFactory
	logger   *slog.Logger
	engine   *query.Engine
	closer   baseline.Closer
}

// loggerFor picks the logger a command writes through.
type loggerFor func(*slogutil.LoggerFactory) *slog.Logger

func cliLogger(f *slogutil.LoggerFactory) *slog.Logger { return f.CLILogger() }
func mcpLogger(f *slogutil.LoggerFactory) *slog.Logger { return f.MCPLogger() }

// newApp loads config, builds the loggers, and wires the engine with the
// baseline fetcher when one is configured.
func newApp(ctx context.Context, pick loggerFor) (*app, error) {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logs := slogutil.NewLoggerFactory(repoRoot, cfg, cliLevel())
	logger := pick(logs)

	rules, err := docs.LoadRules(paths.RulesPath(repoRoot))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	fetcher, closer, err := baseline.NewFromConfig(ctx, repoRoot, cfg, rules, logger)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	engine, err := query.NewEngine(repoRoot, cfg, fetcher, logger)
	if err != nil {
		_ = closer()
		_ = logs.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &app{
		repoRoot: repoRoot,
		config:   cfg,
		logs:     logs,
		logger:   logger,
		engine:   engine,
		closer:   closer,
	}, nil
}

// Close releases the cache database and log files.
func (r *app) Close() {
	if err := r.closer(); err != nil {
		r.logger.Warn("Failed to close cache", "error", err)
	}
	_ = r.logs.Close()
}

func getRepoRoot() (string, error) {
	if repoFlag != "" {
		return filepath.Abs(repoFlag)
	}
	return os.Getwd()
}

// newContext is cancelled on SIGINT/SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseCanonFlag parses an optional repository reference flag.
func parseCanonFlag(s string) (*baseline.RepoRef, error) {
	if s == "" {
		return nil, nil
	}
	ref, err := baseline.ParseRepoRef(s)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
