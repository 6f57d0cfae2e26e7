package query

import (
	"context"
	"log/slog"

	"canon/internal/arbitration"
	"canon/internal/baseline"
	"canon/internal/config"
	"canon/internal/docs"
	canonerrors "canon/internal/errors"
	"canon/internal/paths"
	"canon/internal/slogutil"
	"canon/internal/storage"
)

// Engine is the entry point for collaborators (CLI, MCP). It owns no
// background work; every call is request-scoped.
type Engine struct {
	repoRoot string
	config   *config.Config
	loader   docs.LoaderConfig
	fetcher  *baseline.Fetcher
	logger   *slog.Logger
}

// NewEngine creates an engine for repoRoot. fetcher may be nil when no
// baseline repository is configured.
func NewEngine(repoRoot string, cfg *config.Config, fetcher *baseline.Fetcher, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	rules, err := docs.LoadRules(paths.RulesPath(repoRoot))
	if err != nil {
		return nil, err
	}

	return &Engine{
		repoRoot: repoRoot,
		config:   cfg,
		loader: docs.LoaderConfig{
			Include: cfg.Index.Include,
			Exclude: cfg.Index.Exclude,
			Rules:   rules,
		},
		fetcher: fetcher,
		logger:  logger,
	}, nil
}

// IndexResult reports a rebuild.
type IndexResult struct {
	*docs.BuildResult
	Baseline baseline.Status `json:"baseline"`
	Rebuilt  bool            `json:"rebuilt"`
}

// Index rebuilds and saves the local index. Without force, a snapshot that
// is still current is returned as is.
func (e *Engine) Index(ctx context.Context, force bool) (*IndexResult, error) {
	remote, status, err := e.remote(ctx, nil)
	if err != nil {
		return nil, err
	}

	if !force {
		if idx, _ := docs.LoadIndex(e.repoRoot); idx != nil && !e.isStale(idx, remote, status) {
			return &IndexResult{
				BuildResult: &docs.BuildResult{Index: idx, Warnings: []docs.Warning{}},
				Baseline:    status,
			}, nil
		}
	}

	res, err := e.rebuild(ctx, remote)
	if err != nil {
		return nil, err
	}
	return &IndexResult{BuildResult: res, Baseline: status, Rebuilt: true}, nil
}

// Search answers q against the local index, rebuilding it first when it is
// missing or stale. The baseline is consulted for every search so that an
// unreachable baseline is excluded immediately.
func (e *Engine) Search(ctx context.Context, q string, canon *baseline.RepoRef) (*SearchResult, error) {
	// Reject bad input before any I/O.
	if _, _, err := ParseQuery(q); err != nil {
		return nil, err
	}

	remote, status, err := e.remote(ctx, canon)
	if err != nil {
		return nil, err
	}

	idx, _ := docs.LoadIndex(e.repoRoot)
	if idx == nil || e.isStale(idx, remote, status) {
		res, err := e.rebuild(ctx, remote)
		if err != nil {
			return nil, err
		}
		idx = res.Index
	}

	opts := OptionsFromConfig(e.config)
	opts.BaselineUnavailable = !status.AnyAvailable()
	opts.BaselineCause = status.Cause
	if e.fetcher == nil {
		opts.BaselineCause = "no baseline repository configured"
	}

	res, err := Search(idx, q, opts)
	if err != nil {
		return nil, err
	}
	if e.fetcher != nil {
		res.Baseline = &status
	}
	return res, nil
}

// Resolve exposes supersede resolution without scoring.
func (e *Engine) Resolve(documents []docs.Document) arbitration.Resolution {
	return arbitration.Resolve(documents)
}

// FetchFile returns one governed file from the baseline, or from the canon
// override when given and it has the file.
func (e *Engine) FetchFile(ctx context.Context, path string, canon *baseline.RepoRef) (*baseline.FileResult, error) {
	if e.fetcher == nil {
		return nil, errNoBaseline()
	}
	return e.fetcher.Fetch(ctx, path, canon)
}

// InvalidateCache drops the cached baseline (or canon override) so the next
// request refetches it.
func (e *Engine) InvalidateCache(ctx context.Context, canon *baseline.RepoRef) error {
	if e.fetcher == nil {
		return errNoBaseline()
	}
	return e.fetcher.InvalidateCache(ctx, canon)
}

// CacheStats summarizes the baseline cache database.
func (e *Engine) CacheStats(ctx context.Context) (storage.BlobStats, error) {
	if e.fetcher == nil {
		return storage.BlobStats{}, errNoBaseline()
	}
	return e.fetcher.CacheStats(ctx)
}

// remote returns the baseline index and its status. Unavailability is
// reported through the status; only cancellation is an error.
func (e *Engine) remote(ctx context.Context, canon *baseline.RepoRef) (*docs.Index, baseline.Status, error) {
	if e.fetcher == nil {
		return nil, baseline.Status{}, nil
	}
	idx, status, err := e.fetcher.GetIndex(ctx, canon)
	if err != nil {
		return nil, status, err
	}
	if !status.AnyAvailable() {
		e.logger.Warn("Baseline unavailable, searching local documents only", "cause", status.Cause)
	}
	return idx, status, nil
}

// isStale reports whether a persisted index no longer matches the current
// baseline: availability toggled or the baseline commit moved. Schema
// version mismatches never get here; LoadIndex drops them.
func (e *Engine) isStale(idx *docs.Index, remote *docs.Index, status baseline.Status) bool {
	included := remote != nil
	if idx.BaselineIncluded != included {
		e.logger.Debug("Index stale: baseline availability changed", "was", idx.BaselineIncluded, "now", included)
		return true
	}
	if included && idx.BaselineSHA != status.Fingerprint() {
		e.logger.Debug("Index stale: baseline moved", "was", idx.BaselineSHA, "now", status.Fingerprint())
		return true
	}
	return false
}

func (e *Engine) rebuild(ctx context.Context, remote *docs.Index) (*docs.BuildResult, error) {
	res, err := BuildIndex(ctx, e.repoRoot, remote, BuildOptions{Loader: e.loader, Logger: e.logger})
	if err != nil {
		return nil, err
	}
	if err := docs.SaveIndex(res.Index, e.repoRoot); err != nil {
		e.logger.Warn("Failed to save index", "error", err)
	}
	return res, nil
}

func errNoBaseline() error {
	return canonerrors.New(canonerrors.BaselineUnavailable, "no baseline repository configured", nil)
}
