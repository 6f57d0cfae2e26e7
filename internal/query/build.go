// Package query ties the local index, the baseline fetcher and the search
// pipeline together.
package query

import (
	"context"
	"fmt"
	"log/slog"

	"canon/internal/docs"
	"canon/internal/slogutil"
)

// BuildOptions configures BuildIndex.
type BuildOptions struct {
	Loader docs.LoaderConfig
	Logger *slog.Logger
}

// DefaultBuildOptions returns the default loader settings.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Loader: docs.DefaultLoaderConfig()}
}

// BuildIndex scans root and combines it with the baseline corpus, if any.
// Baseline documents whose content hash matches a local document are
// dropped; a vendored copy of a baseline file must not count twice.
// Per-file problems are returned as warnings, never as an error.
func BuildIndex(ctx context.Context, root string, baseline *docs.Index, opts BuildOptions) (*docs.BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	loader := docs.NewLoader(opts.Loader, logger)
	local, warnings, err := loader.LoadDir(ctx, root, docs.OriginLocal)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	for _, w := range warnings {
		logger.Warn("Skipped document", "path", w.Path, "reason", w.Reason)
	}

	documents := local
	warningCount := len(warnings)
	sha := ""
	if baseline != nil {
		localHashes := make(map[string]bool, len(local))
		for i := range local {
			localHashes[local[i].ContentHash] = true
		}

		dropped := 0
		for _, d := range baseline.Documents {
			if localHashes[d.ContentHash] {
				dropped++
				continue
			}
			d.Origin = docs.OriginBaseline
			documents = append(documents, d)
		}
		if dropped > 0 {
			logger.Debug("Dropped baseline duplicates of local documents", "count", dropped)
		}
		warningCount += baseline.Stats.Warnings
		sha = baseline.BaselineSHA
	}

	idx := docs.NewIndex(documents, warningCount, baseline != nil, sha)
	logger.Info("Built index",
		"documents", idx.Stats.Total,
		"local", idx.Stats.Local,
		"baseline", idx.Stats.Baseline,
		"warnings", warningCount,
	)

	if warnings == nil {
		warnings = []docs.Warning{}
	}
	return &docs.BuildResult{Index: idx, Warnings: warnings}, nil
}
