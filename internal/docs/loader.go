package docs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"canon/internal/paths"
	"canon/internal/slogutil"
)

// SourceFile is an in-memory file, e.g. an entry of a fetched archive.
type SourceFile struct {
	Path    string
	Content []byte
}

// LoaderConfig contains configuration for the loader.
type LoaderConfig struct {
	Include []string
	Exclude []string
	Rules   Rules
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Include: []string{"**/*.md", "**/*.markdown"},
		Exclude: []string{".git/**", "node_modules/**", ".canon/**", "vendor/**"},
		Rules:   DefaultRules(),
	}
}

// Loader turns markdown files into Documents.
type Loader struct {
	config LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a new loader.
func NewLoader(config LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Loader{config: config, logger: logger}
}

// LoadDir walks root in lexical order and loads every included file.
// Per-file problems are returned as warnings and never abort the walk.
func (l *Loader) LoadDir(ctx context.Context, root string, origin Origin) ([]Document, []Warning, error) {
	var docs []Document
	var warnings []Warning

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := filepath.ToSlash(p)
		if r, relErr := filepath.Rel(root, p); relErr == nil {
			rel = paths.NormalizePath(r)
		}

		if err != nil {
			if p == root {
				return err
			}
			warnings = append(warnings, l.warn(rel, origin, err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != root && dirExcluded(l.config.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !matchAny(l.config.Include, rel) || matchAny(l.config.Exclude, rel) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !paths.IsWithinRepo(p, root) {
			warnings = append(warnings, l.warn(rel, origin, "symlink points outside the root"))
			return nil
		}

		content, readErr := os.ReadFile(p)
		if readErr != nil {
			warnings = append(warnings, l.warn(rel, origin, fmt.Sprintf("unreadable: %v", readErr)))
			return nil
		}

		doc, docWarnings, ok := l.Parse(rel, origin, content)
		warnings = append(warnings, docWarnings...)
		if ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, warnings, err
	}

	return docs, warnings, nil
}

// LoadFiles loads in-memory files, ordered by path. Include/exclude patterns
// are not applied; callers pass the files they want indexed.
func (l *Loader) LoadFiles(origin Origin, files []SourceFile) ([]Document, []Warning) {
	sorted := make([]SourceFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var docs []Document
	var warnings []Warning
	seen := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		rel := paths.NormalizePath(f.Path)
		if seen[rel] {
			warnings = append(warnings, l.warn(rel, origin, "duplicate path"))
			continue
		}
		seen[rel] = true

		doc, docWarnings, ok := l.Parse(rel, origin, f.Content)
		warnings = append(warnings, docWarnings...)
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, warnings
}

// Parse builds a Document from raw file content. ok is false when the file
// must be skipped; the reason is among the returned warnings.
func (l *Loader) Parse(rel string, origin Origin, content []byte) (Document, []Warning, bool) {
	var warnings []Warning

	if !utf8.Valid(content) {
		return Document{}, []Warning{l.warn(rel, origin, "not valid UTF-8")}, false
	}

	format, rawFM, body := splitFrontmatter(normalizeNewlines(string(content)))
	fm, err := parseFrontmatter(format, rawFM)
	if err != nil {
		warnings = append(warnings, l.warn(rel, origin, err.Error()))
		fm = &frontmatter{}
	}

	headings := ExtractHeadings(body)
	doc := Document{
		Path:              rel,
		Origin:            origin,
		URI:               strings.TrimSpace(fm.URI),
		Title:             strings.TrimSpace(fm.Title),
		Subtitle:          strings.TrimSpace(fm.Subtitle),
		Tags:              stringList(fm.Tags),
		Supersedes:        strings.TrimSpace(fm.Supersedes),
		ConflictsWith:     stringList(fm.ConflictsWith),
		ContentHash:       ContentHash(body),
		Headings:          headings,
		ContentPreview:    Preview(body),
		ContentLength:     len(body),
		FrontmatterFormat: format,
		Body:              body,
	}

	if doc.Title == "" {
		doc.Title = FirstH1(headings)
	}
	if doc.Title == "" {
		base := filepath.Base(rel)
		doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	doc.AuthorityBand = l.config.Rules.ClassifyAuthority(rel)
	if v := fm.band(); v != "" {
		if band := AuthorityBand(strings.ToLower(v)); band.Valid() {
			doc.AuthorityBand = band
		} else {
			warnings = append(warnings, l.warn(rel, origin, fmt.Sprintf("unknown authority %q, inferred %s", v, doc.AuthorityBand)))
		}
	}

	doc.Intent = l.config.Rules.ClassifyIntent(rel)
	if v := fm.Intent; v != "" {
		if intent := Intent(strings.ToLower(v)); intent.Valid() {
			doc.Intent = intent
		} else {
			warnings = append(warnings, l.warn(rel, origin, fmt.Sprintf("unknown intent %q, inferred %s", v, doc.Intent)))
		}
	}

	doc.EvidenceStrength = EvidenceNone
	if v := fm.evidence(); v != "" {
		if strength := EvidenceStrength(strings.ToLower(v)); strength.Valid() {
			doc.EvidenceStrength = strength
		} else {
			warnings = append(warnings, l.warn(rel, origin, fmt.Sprintf("unknown evidence strength %q", v)))
		}
	}

	return doc, warnings, true
}

func (l *Loader) warn(rel string, origin Origin, reason string) Warning {
	l.logger.Warn("Document warning", "path", rel, "origin", string(origin), "reason", reason)
	return Warning{Path: rel, Origin: origin, Reason: reason}
}
