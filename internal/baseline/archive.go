package baseline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"canon/internal/docs"
	"canon/internal/paths"
)

// ExtractOptions selects which archive entries are kept.
type ExtractOptions struct {
	// GovernedDirs are top-level directories of the repository whose files
	// are indexed. Empty keeps every directory.
	GovernedDirs []string

	// Extensions are matched case-insensitively, with the leading dot.
	Extensions []string

	// MaxFileBytes skips larger entries. Zero means no limit.
	MaxFileBytes int64
}

// DefaultExtractOptions returns the governed layout used by canon repositories.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		GovernedDirs: []string{"canon", "pattern-library", "patterns", "docs"},
		Extensions:   []string{".md", ".markdown"},
		MaxFileBytes: 4 << 20,
	}
}

// ExtractArchive reads a repository ZIP archive. GitHub wraps the tree in a
// single "<repo>-<sha>/" directory, which is stripped from every path.
// Only files under a governed directory with a documentation extension are
// returned, sorted by path. Entries over MaxFileBytes or that fail to
// decompress are skipped with a warning.
func ExtractArchive(data []byte, opts ExtractOptions) ([]docs.SourceFile, []docs.Warning, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid archive: %w", err)
	}

	var files []docs.SourceFile
	var warnings []docs.Warning
	skip := func(rel, reason string) {
		warnings = append(warnings, docs.Warning{Path: rel, Origin: docs.OriginBaseline, Reason: reason})
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, ok := stripTopDir(f.Name)
		if !ok || !opts.keep(rel) {
			continue
		}
		// The header size is only a hint; readEntry enforces the limit.
		if opts.MaxFileBytes > 0 && f.UncompressedSize64 > uint64(opts.MaxFileBytes) {
			skip(rel, fmt.Sprintf("larger than %d bytes", opts.MaxFileBytes))
			continue
		}

		content, err := readEntry(f, opts.MaxFileBytes)
		if errors.Is(err, errEntryTooLarge) {
			skip(rel, fmt.Sprintf("larger than %d bytes", opts.MaxFileBytes))
			continue
		}
		if err != nil {
			skip(rel, fmt.Sprintf("unreadable: %v", err))
			continue
		}
		files = append(files, docs.SourceFile{Path: rel, Content: content})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, warnings, nil
}

var errEntryTooLarge = errors.New("archive entry exceeds size limit")

// readEntry reads at most limit bytes. One extra byte is requested so an
// entry longer than its header claims is detected.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	if limit <= 0 {
		return io.ReadAll(rc)
	}
	content, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, errEntryTooLarge
	}
	return content, nil
}

func stripTopDir(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	_, rest, ok := strings.Cut(strings.TrimPrefix(name, "/"), "/")
	if !ok || rest == "" {
		return "", false
	}
	rel := paths.NormalizePath(path.Clean(rest))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (o ExtractOptions) keep(rel string) bool {
	if len(o.GovernedDirs) > 0 {
		top, _, ok := strings.Cut(rel, "/")
		if !ok || !containsFold(o.GovernedDirs, top) {
			return false
		}
	}
	if len(o.Extensions) > 0 && !containsFold(o.Extensions, path.Ext(rel)) {
		return false
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.Trim(v, "/"), s) {
			return true
		}
	}
	return false
}
