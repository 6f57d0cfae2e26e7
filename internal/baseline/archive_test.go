package baseline

import (
	"bytes"
	"errors"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"canon/internal/docs"
)

// buildZip writes files under a GitHub-style top-level directory.
func buildZip(t *testing.T, top string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create(top + "/"); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		w, err := zw.Create(top + "/" + name)
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
	return buf.Bytes()
}

func TestExtractArchive(t *testing.T) {
	data := buildZip(t, "gov-abc123", map[string]string{
		"canon/retry.md":             "# Retry\n",
		"patterns/backoff.markdown":  "# Backoff\n",
		"docs/operational/deploy.MD": "# Deploy\n",
		"README.md":                  "# Readme\n",
		"canon/diagram.png":          "png",
		"src/canon/notes.md":         "# Nested\n",
		"pattern-library/x/../y.md":  "# Cleaned\n",
		"canon/../../escape/evil.md": "# Escape\n",
	})

	files, warnings, err := ExtractArchive(data, DefaultExtractOptions())
	if err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %+v, want none", warnings)
	}

	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	want := []string{"canon/retry.md", "docs/operational/deploy.MD", "pattern-library/y.md", "patterns/backoff.markdown"}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if string(files[0].Content) != "# Retry\n" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestExtractArchive_NoFilter(t *testing.T) {
	data := buildZip(t, "top", map[string]string{"a.md": "a", "b/c.txt": "c"})

	files, _, err := ExtractArchive(data, ExtractOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("got %d files, want 2", len(files))
	}
}

func TestExtractArchive_Invalid(t *testing.T) {
	if _, _, err := ExtractArchive([]byte("not a zip"), DefaultExtractOptions()); err == nil {
		t.Error("expected error for invalid archive")
	}
}

// rawEntry stores content under a header that claims declared bytes.
func rawEntry(t *testing.T, zw *zip.Writer, name, content string, declared uint64) {
	t.Helper()
	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE([]byte(content)),
		CompressedSize64:   uint64(len(content)),
		UncompressedSize64: declared,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
}

func TestExtractArchive_SizeLimit(t *testing.T) {
	big := strings.Repeat("x", 100)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	rawEntry(t, zw, "top/canon/ok.md", "# Fine\n", 7)
	rawEntry(t, zw, "top/canon/honest.md", big, 100)
	rawEntry(t, zw, "top/canon/lying.md", big, 10)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	files, warnings, err := ExtractArchive(buf.Bytes(), ExtractOptions{MaxFileBytes: 50})
	if err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}
	if len(files) != 1 || files[0].Path != "canon/ok.md" {
		t.Fatalf("files = %+v, want only canon/ok.md", files)
	}

	skipped := map[string]string{}
	for _, w := range warnings {
		skipped[w.Path] = w.Reason
		if w.Origin != docs.OriginBaseline {
			t.Errorf("warning origin = %s", w.Origin)
		}
	}
	if len(skipped) != 2 || skipped["canon/honest.md"] == "" || skipped["canon/lying.md"] == "" {
		t.Errorf("warnings = %+v, want honest.md and lying.md", warnings)
	}
}

func TestReadEntry_LimitPlusOne(t *testing.T) {
	data := buildZip(t, "top", map[string]string{"a.md": strings.Repeat("y", 51)})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == "top/a.md" {
			entry = f
		}
	}
	if entry == nil {
		t.Fatal("entry not found")
	}

	if _, err := readEntry(entry, 50); !errors.Is(err, errEntryTooLarge) {
		t.Errorf("readEntry(50) error = %v, want errEntryTooLarge", err)
	}
	if content, err := readEntry(entry, 51); err != nil || len(content) != 51 {
		t.Errorf("readEntry(51) = %d bytes, %v", len(content), err)
	}
}
