package query

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"canon/internal/baseline"
	"canon/internal/docs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// parseDoc builds a document through the real loader so classification
// rules apply exactly as they do for files on disk.
func parseDoc(t *testing.T, rel string, origin docs.Origin, content string) docs.Document {
	t.Helper()
	d, warnings, ok := docs.NewLoader(docs.DefaultLoaderConfig(), nil).Parse(rel, origin, []byte(content))
	if !ok {
		t.Fatalf("parse %s: %v", rel, warnings)
	}
	return d
}

func indexOf(documents ...docs.Document) *docs.Index {
	baselineIncluded := false
	for _, d := range documents {
		if d.Origin == docs.OriginBaseline {
			baselineIncluded = true
		}
	}
	return docs.NewIndex(documents, 0, baselineIncluded, "")
}

func sourcePaths(res *SearchResult) []string {
	var out []string
	for _, s := range res.Sources {
		out = append(out, s.Path)
	}
	return out
}

// stubOrigin serves one archive per repository and can be switched offline.
type stubOrigin struct {
	mu      sync.Mutex
	sha     string
	archive []byte
	offline bool
	fetches int
}

func newStubOrigin(t *testing.T, sha string, files map[string]string) *stubOrigin {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create("gov-" + sha + "/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return &stubOrigin{sha: sha, archive: buf.Bytes()}
}

func (o *stubOrigin) setOffline(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline = v
}

func (o *stubOrigin) ResolveCommit(ctx context.Context, ref baseline.RepoRef) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.offline {
		return "", errors.New("dial tcp: connection refused")
	}
	return o.sha, nil
}

func (o *stubOrigin) FetchArchive(ctx context.Context, ref baseline.RepoRef, sha string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
	if o.offline {
		return nil, errors.New("dial tcp: connection refused")
	}
	return o.archive, nil
}
