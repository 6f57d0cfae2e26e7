package query

import (
	"context"
	"os"
	"testing"

	"canon/internal/baseline"
	"canon/internal/config"
	"canon/internal/docs"
	canonerrors "canon/internal/errors"
	"canon/internal/paths"
)

func TestEngine_SearchPersistsIndex(t *testing.T) {
	root := newRepo(t)
	ctx := context.Background()

	engine, err := NewEngine(root, config.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	first, err := engine.Search(ctx, "retry policy", nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, err := os.Stat(paths.IndexPath(root)); err != nil {
		t.Fatalf("index not saved: %v", err)
	}
	if !first.Debug.BaselineUnavailable {
		t.Error("without a fetcher the baseline is unavailable")
	}

	second, err := engine.Search(ctx, "retry policy", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Debug.IndexBuildID != second.Debug.IndexBuildID {
		t.Error("a current snapshot must be reused")
	}

	res, err := engine.Index(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rebuilt || res.Index.BuildID == first.Debug.IndexBuildID {
		t.Error("forced index must rebuild")
	}
}

func TestEngine_InvalidQueryBeforeIO(t *testing.T) {
	root := t.TempDir()
	engine, err := NewEngine(root, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Search(context.Background(), "  ", nil); !canonerrors.Is(err, canonerrors.InvalidQuery) {
		t.Errorf("error = %v, want INVALID_QUERY", err)
	}
	if _, err := os.Stat(paths.IndexPath(root)); !os.IsNotExist(err) {
		t.Error("an invalid query must not build an index")
	}
}

func TestEngine_NoBaseline(t *testing.T) {
	engine, err := NewEngine(t.TempDir(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := engine.FetchFile(ctx, "canon/a.md", nil); !canonerrors.Is(err, canonerrors.BaselineUnavailable) {
		t.Errorf("FetchFile error = %v", err)
	}
	if err := engine.InvalidateCache(ctx, nil); !canonerrors.Is(err, canonerrors.BaselineUnavailable) {
		t.Errorf("InvalidateCache error = %v", err)
	}
}

func TestEngine_BaselineToggle(t *testing.T) {
	root := newRepo(t)
	ctx := context.Background()

	origin := newStubOrigin(t, "abc123", map[string]string{
		"canon/shared-retry.md": "# Retry policy\n\nThe shared retry policy allows three attempts with exponential backoff.\n",
	})
	fetcher := baseline.NewFetcher(baseline.MustParseRepoRef("acme/gov"), origin, nil, baseline.DefaultOptions(), nil)
	engine, err := NewEngine(root, config.DefaultConfig(), fetcher, nil)
	if err != nil {
		t.Fatal(err)
	}

	hasBaseline := func(res *SearchResult) bool {
		for _, s := range res.Sources {
			if s.Origin == docs.OriginBaseline {
				return true
			}
		}
		return false
	}

	res, err := engine.Search(ctx, "retry policy", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hasBaseline(res) || res.Debug.BaselineUnavailable {
		t.Fatalf("expected baseline sources, got %v", sourcePaths(res))
	}

	t.Run("unreachable baseline is excluded", func(t *testing.T) {
		origin.setOffline(true)
		// Drop the cached copy so the fetch path runs.
		if err := engine.InvalidateCache(ctx, nil); err != nil {
			t.Fatal(err)
		}

		res, err := engine.Search(ctx, "retry policy", nil)
		if err != nil {
			t.Fatal(err)
		}
		if hasBaseline(res) {
			t.Errorf("baseline sources returned while unavailable: %v", sourcePaths(res))
		}
		if !res.Debug.BaselineUnavailable || res.Debug.BaselineCause == "" {
			t.Errorf("debug = %+v", res.Debug)
		}

		idx, err := docs.LoadIndex(root)
		if err != nil || idx == nil || idx.BaselineIncluded {
			t.Errorf("saved index should exclude the baseline: %+v, %v", idx, err)
		}
	})

	t.Run("recovered baseline returns", func(t *testing.T) {
		origin.setOffline(false)
		res, err := engine.Search(ctx, "retry policy", nil)
		if err != nil {
			t.Fatal(err)
		}
		if !hasBaseline(res) {
			t.Errorf("expected baseline sources after recovery, got %v", sourcePaths(res))
		}
	})

	t.Run("fetch file", func(t *testing.T) {
		fr, err := engine.FetchFile(ctx, "canon/shared-retry.md", nil)
		if err != nil || !fr.Found {
			t.Errorf("FetchFile() = %+v, %v", fr, err)
		}
	})
}

func TestEngine_Resolve(t *testing.T) {
	engine, err := NewEngine(t.TempDir(), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	a := docs.Document{Path: "a.md", URI: "u:a", Supersedes: "u:b"}
	b := docs.Document{Path: "b.md", URI: "u:b"}

	res := engine.Resolve([]docs.Document{a, b})
	if len(res.Filtered) != 1 || res.Suppressed["u:b"] != "a.md" {
		t.Errorf("Resolve() = %+v", res)
	}
}
