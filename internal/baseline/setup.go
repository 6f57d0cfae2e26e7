package baseline

import (
	"context"
	"fmt"
	"log/slog"

	"canon/internal/config"
	"canon/internal/docs"
	"canon/internal/paths"
	"canon/internal/slogutil"
	"canon/internal/storage"
)

// Closer releases what NewFromConfig opened.
type Closer func() error

// NewFromConfig wires a GitHub-backed Fetcher over the repository's blob
// store at .canon/cache.db. It returns a nil Fetcher when no baseline
// repository is configured.
func NewFromConfig(ctx context.Context, repoRoot string, cfg *config.Config, rules docs.Rules, logger *slog.Logger) (*Fetcher, Closer, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if cfg.Baseline.Repo == "" {
		return nil, noop, nil
	}

	ref, err := ParseRepoRef(cfg.Baseline.Repo)
	if err != nil {
		return nil, noop, err
	}
	if ref.Ref == "" {
		ref.Ref = cfg.Baseline.Ref
	}

	origin, err := NewGitHubOrigin(ctx, GitHubOptions{
		Token:           cfg.Baseline.Token,
		RequestsPerHour: cfg.Baseline.RequestsPerHour,
		MaxArchiveBytes: cfg.Baseline.MaxArchiveBytes,
	})
	if err != nil {
		return nil, noop, err
	}

	db, err := storage.Open(paths.CacheDBPath(repoRoot), logger)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open cache: %w", err)
	}
	store, err := storage.NewBlobStore(db)
	if err != nil {
		_ = db.Close()
		return nil, noop, err
	}
	if n, err := store.CleanupExpired(ctx); err != nil {
		logger.Warn("Failed to clean expired cache entries", "error", err)
	} else if n > 0 {
		logger.Debug("Removed expired cache entries", "count", n)
	}

	closer := func() error {
		_ = store.Close()
		return db.Close()
	}
	return NewFetcher(ref, origin, store, OptionsFromConfig(cfg, rules), logger), closer, nil
}
