package query

import (
	"context"
	"reflect"
	"testing"

	"canon/internal/docs"
)

func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "canon/retry.md", retryRules)
	writeFile(t, root, "docs/logging.md", "# Logging\n\nLogs are structured lines with a timestamp and a level field.\n")
	writeFile(t, root, "docs/binary.md", "\xff\xfe\x00bad")
	return root
}

func TestBuildIndex_Idempotent(t *testing.T) {
	root := newRepo(t)
	ctx := context.Background()

	first, err := BuildIndex(ctx, root, nil, DefaultBuildOptions())
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	second, err := BuildIndex(ctx, root, nil, DefaultBuildOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Index.Documents, second.Index.Documents) {
		t.Error("rebuilding unchanged input must yield identical documents")
	}
	if first.Index.BuildID == second.Index.BuildID {
		t.Error("each build gets its own ID")
	}
	if len(first.Warnings) != 1 || first.Warnings[0].Path != "docs/binary.md" {
		t.Errorf("warnings = %+v", first.Warnings)
	}
	if first.Index.BaselineIncluded {
		t.Error("no baseline was given")
	}
}

func TestBuildIndex_WithBaseline(t *testing.T) {
	root := newRepo(t)
	ctx := context.Background()

	shared := parseDoc(t, "canon/shared.md", docs.OriginBaseline, "# Shared\n\nShared guidance for every repository in the organisation.\n")
	vendored := parseDoc(t, "canon/retry.md", docs.OriginBaseline, retryRules)
	remote := docs.NewIndex([]docs.Document{shared, vendored}, 2, true, "abc123")

	res, err := BuildIndex(ctx, root, remote, DefaultBuildOptions())
	if err != nil {
		t.Fatal(err)
	}
	idx := res.Index

	if !idx.BaselineIncluded || idx.BaselineSHA != "abc123" {
		t.Errorf("baseline flags = %v %q", idx.BaselineIncluded, idx.BaselineSHA)
	}
	if idx.Stats.Local != 2 || idx.Stats.Baseline != 1 {
		t.Errorf("stats = %+v, want 2 local and 1 baseline (identical copy dropped)", idx.Stats)
	}
	if idx.Stats.Warnings != 3 {
		t.Errorf("warnings = %d, want local 1 + baseline 2", idx.Stats.Warnings)
	}

	seen := map[string]bool{}
	for _, d := range idx.Documents {
		key := d.Key()
		if seen[key] {
			t.Errorf("duplicate (origin, path) %s", key)
		}
		seen[key] = true
	}
}

func TestBuildIndex_MissingRoot(t *testing.T) {
	if _, err := BuildIndex(context.Background(), "/nonexistent/canon-root", nil, DefaultBuildOptions()); err == nil {
		t.Error("expected error for missing root")
	}
}
