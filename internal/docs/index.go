package docs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"canon/internal/paths"
	"canon/internal/version"
)

// NewIndex snapshots documents into an Index stamped with the current schema version.
func NewIndex(documents []Document, warnings int, baselineIncluded bool, baselineSHA string) *Index {
	return &Index{
		Version:          version.IndexSchemaVersion,
		GeneratedAt:      time.Now().UTC(),
		BuildID:          uuid.NewString(),
		Documents:        documents,
		Stats:            ComputeStats(documents, warnings),
		BaselineIncluded: baselineIncluded,
		BaselineSHA:      baselineSHA,
	}
}

// ComputeStats aggregates counts over documents.
func ComputeStats(documents []Document, warnings int) IndexStats {
	stats := IndexStats{
		Total:    len(documents),
		ByIntent: make(map[Intent]int),
		ByBand:   make(map[AuthorityBand]int),
		Warnings: warnings,
	}
	for i := range documents {
		d := &documents[i]
		if d.Origin == OriginBaseline {
			stats.Baseline++
		} else {
			stats.Local++
		}
		stats.ByIntent[d.Intent]++
		stats.ByBand[d.AuthorityBand]++
	}
	return stats
}

// LoadIndex loads the index snapshot from <root>/.canon/index.json.
// Returns nil without error if no snapshot exists or its schema version differs.
func LoadIndex(root string) (*Index, error) {
	data, err := os.ReadFile(paths.IndexPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	if idx.Version != version.IndexSchemaVersion {
		return nil, nil
	}

	return &idx, nil
}

// SaveIndex writes idx to <root>/.canon/index.json, replacing it atomically.
func SaveIndex(idx *Index, root string) error {
	dir, err := paths.EnsureStateDir(root)
	if err != nil {
		return fmt.Errorf("creating .canon directory: %w", err)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "index-*.json.tmp")
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, paths.IndexFileName)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Merge combines an override corpus with a base corpus. Override documents
// come first; base documents sharing a path or URI with any override
// document are dropped, the rest are appended in order.
func Merge(override, base []Document) []Document {
	seenPaths := make(map[string]bool, len(override))
	uris := make(map[string]bool, len(override))
	out := make([]Document, 0, len(override)+len(base))
	for _, d := range override {
		seenPaths[d.Path] = true
		if d.URI != "" {
			uris[d.URI] = true
		}
		out = append(out, d)
	}
	for _, d := range base {
		if seenPaths[d.Path] || (d.URI != "" && uris[d.URI]) {
			continue
		}
		out = append(out, d)
	}
	return out
}
