package baseline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"canon/internal/config"
	"canon/internal/docs"
	canonerrors "canon/internal/errors"
	"canon/internal/paths"
	"canon/internal/slogutil"
	"canon/internal/storage"
	"canon/internal/version"
)

// Default timeouts and TTLs.
const (
	DefaultCheckTimeout = 5 * time.Second
	DefaultFetchTimeout = 30 * time.Second
	DefaultIndexTTL     = 10 * time.Minute
	DefaultArchiveTTL   = 24 * time.Hour
	DefaultFileTTL      = 24 * time.Hour
	DefaultSHATTL       = 24 * time.Hour
)

// Tier names the cache level a result was served from.
type Tier string

const (
	TierMemory Tier = "memory"
	TierStore  Tier = "store"
	TierOrigin Tier = "origin"
)

// CauseCheckThrottled marks an available status whose commit check was
// skipped by the origin throttle; the SHA is the last cached one.
const CauseCheckThrottled = "check throttled"

// Status reports the availability of the remote corpus for one request.
type Status struct {
	Available bool   `json:"available"`
	Repo      string `json:"repo,omitempty"`
	SHA       string `json:"sha,omitempty"`
	Tier      Tier   `json:"tier,omitempty"`
	Cause     string `json:"cause,omitempty"`

	// Canon is the override repository's status when one was requested.
	Canon *Status `json:"canon,omitempty"`
}

// AnyAvailable reports whether any remote repository contributed documents.
func (s Status) AnyAvailable() bool {
	return s.Available || (s.Canon != nil && s.Canon.Available)
}

// Fingerprint identifies the remote content a result was built from.
// It is empty when nothing was available.
func (s Status) Fingerprint() string {
	var parts []string
	if s.Available {
		parts = append(parts, s.SHA)
	}
	if s.Canon != nil && s.Canon.Available {
		parts = append(parts, "canon:"+s.Canon.SHA)
	}
	return strings.Join(parts, "+")
}

// Store is the durable tier. *storage.BlobStore implements it.
type Store interface {
	Get(ctx context.Context, key string) (*storage.Blob, bool, error)
	Put(ctx context.Context, key, sha string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Options configures a Fetcher. Zero durations take the defaults.
type Options struct {
	Extract ExtractOptions
	Rules   docs.Rules

	CheckTimeout time.Duration
	FetchTimeout time.Duration

	IndexTTL   time.Duration
	ArchiveTTL time.Duration
	FileTTL    time.Duration
	SHATTL     time.Duration
}

// DefaultOptions returns the default fetcher options.
func DefaultOptions() Options {
	return Options{
		Extract:      DefaultExtractOptions(),
		Rules:        docs.DefaultRules(),
		CheckTimeout: DefaultCheckTimeout,
		FetchTimeout: DefaultFetchTimeout,
		IndexTTL:     DefaultIndexTTL,
		ArchiveTTL:   DefaultArchiveTTL,
		FileTTL:      DefaultFileTTL,
		SHATTL:       DefaultSHATTL,
	}
}

// OptionsFromConfig maps the baseline and cache config sections.
func OptionsFromConfig(cfg *config.Config, rules docs.Rules) Options {
	opts := DefaultOptions()
	opts.Rules = rules
	opts.Extract.GovernedDirs = cfg.Baseline.GovernedDirs
	opts.Extract.Extensions = cfg.Baseline.Extensions
	opts.CheckTimeout = time.Duration(cfg.Baseline.CheckTimeoutMs) * time.Millisecond
	opts.FetchTimeout = time.Duration(cfg.Baseline.FetchTimeoutMs) * time.Millisecond
	opts.IndexTTL = time.Duration(cfg.Cache.IndexTtlSeconds) * time.Second
	opts.ArchiveTTL = time.Duration(cfg.Cache.ArchiveTtlSeconds) * time.Second
	opts.FileTTL = time.Duration(cfg.Cache.FileTtlSeconds) * time.Second
	opts.SHATTL = time.Duration(cfg.Cache.ShaTtlSeconds) * time.Second
	return opts
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.CheckTimeout <= 0 {
		o.CheckTimeout = d.CheckTimeout
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.IndexTTL <= 0 {
		o.IndexTTL = d.IndexTTL
	}
	if o.ArchiveTTL <= 0 {
		o.ArchiveTTL = d.ArchiveTTL
	}
	if o.FileTTL <= 0 {
		o.FileTTL = d.FileTTL
	}
	if o.SHATTL <= 0 {
		o.SHATTL = d.SHATTL
	}
	if o.Rules.DefaultBand == "" {
		o.Rules = d.Rules
	}
}

// Fetcher serves the baseline corpus through memory, the durable store and
// the origin, in that order. Every cached entry is tagged with the commit SHA
// it was built from and is only served while that SHA is current.
//
// A Fetcher holds no background goroutines. Concurrent requests that both
// miss may both fetch; writes are idempotent and converge on the same SHA.
type Fetcher struct {
	base   RepoRef
	origin Origin
	store  Store
	memory *memoryTier
	loader *docs.Loader
	opts   Options
	logger *slog.Logger
}

// NewFetcher creates a fetcher for the base repository. store may be nil,
// in which case only the memory tier is used.
func NewFetcher(base RepoRef, origin Origin, store Store, opts Options, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	opts.applyDefaults()
	return &Fetcher{
		base:   base,
		origin: origin,
		store:  store,
		memory: newMemoryTier(),
		loader: docs.NewLoader(docs.LoaderConfig{Rules: opts.Rules}, logger),
		opts:   opts,
		logger: logger,
	}
}

// Base returns the shared baseline reference.
func (f *Fetcher) Base() RepoRef {
	return f.base
}

// GetIndex returns the baseline index, merged under the canon override when
// one is given. Unavailability is not an error: the returned index only
// holds documents of repositories that could be served, and is nil when
// none could. Status says which.
func (f *Fetcher) GetIndex(ctx context.Context, canon *RepoRef) (*docs.Index, Status, error) {
	baseIdx, status := f.repoIndex(ctx, f.base)
	if canon == nil {
		if err := ctx.Err(); err != nil {
			return nil, status, err
		}
		return baseIdx, status, nil
	}

	canonIdx, canonStatus := f.repoIndex(ctx, *canon)
	status.Canon = &canonStatus
	if err := ctx.Err(); err != nil {
		return nil, status, err
	}
	if baseIdx == nil && canonIdx == nil {
		return nil, status, nil
	}

	var override, base []docs.Document
	warnings := 0
	if canonIdx != nil {
		override = canonIdx.Documents
		warnings += canonIdx.Stats.Warnings
	}
	if baseIdx != nil {
		base = baseIdx.Documents
		warnings += baseIdx.Stats.Warnings
	}
	merged := docs.Merge(override, base)
	return docs.NewIndex(merged, warnings, true, status.Fingerprint()), status, nil
}

// FileResult is the outcome of a baseline file fetch.
type FileResult struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Found   bool   `json:"found"`
	Repo    string `json:"repo,omitempty"`
	Status  Status `json:"status"`
}

// FetchFile returns the content of one governed file. The canon override is
// consulted first. found is false when no available repository has the file.
func (f *Fetcher) FetchFile(ctx context.Context, filePath string, canon *RepoRef) (string, bool, error) {
	res, err := f.Fetch(ctx, filePath, canon)
	if err != nil {
		return "", false, err
	}
	return res.Content, res.Found, nil
}

// Fetch is FetchFile with the serving repository and status attached.
func (f *Fetcher) Fetch(ctx context.Context, filePath string, canon *RepoRef) (*FileResult, error) {
	rel, err := cleanFilePath(filePath)
	if err != nil {
		return nil, err
	}

	refs := []RepoRef{f.base}
	if canon != nil {
		refs = []RepoRef{*canon, f.base}
	}

	res := &FileResult{Path: rel}
	for i, ref := range refs {
		content, found, status := f.repoFile(ctx, ref, rel)
		if i == 0 || found {
			res.Status = status
		}
		if found {
			res.Content = content
			res.Found = true
			res.Repo = ref.String()
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// InvalidateCache drops every cached entry for the canon override, or for
// the base repository when canon is nil. The next request goes to origin.
func (f *Fetcher) InvalidateCache(ctx context.Context, canon *RepoRef) error {
	ref := f.base
	if canon != nil {
		ref = *canon
	}
	key := ref.Key()

	removed := 0
	for _, k := range []string{archiveKey(key), indexKey(key), shaKey(key)} {
		if _, ok := f.memory.get(k); ok {
			removed++
		}
		f.memory.delete(k)
	}
	removed += f.memory.deletePrefix(filePrefix(key))

	if f.store != nil {
		for _, k := range []string{archiveKey(key), indexKey(key), shaKey(key)} {
			if err := f.store.Delete(ctx, k); err != nil {
				return fmt.Errorf("invalidate %s: %w", ref, err)
			}
		}
		if _, err := f.store.DeletePrefix(ctx, filePrefix(key)); err != nil {
			return fmt.Errorf("invalidate %s: %w", ref, err)
		}
	}

	f.logger.Info("Invalidated baseline cache", "repo", ref.String(), "memoryEntries", removed)
	return nil
}

// statser is implemented by stores that can summarize their contents.
type statser interface {
	Stats(ctx context.Context) (storage.BlobStats, error)
}

// CacheStats summarizes the durable store. Without one the zero value is
// returned.
func (f *Fetcher) CacheStats(ctx context.Context) (storage.BlobStats, error) {
	st, ok := f.store.(statser)
	if !ok {
		return storage.BlobStats{}, nil
	}
	return st.Stats(ctx)
}

// repoState is the outcome of the SHA check for one repository.
type repoState struct {
	ref      RepoRef
	key      string
	sha      string
	hit      bool
	checkErr error

	// throttled is set when the check was skipped for lack of request
	// budget and sha is the last cached one.
	throttled bool
}

// checkRepo resolves the current commit and compares it with the last
// cached one. A failed check is a miss. A throttled check is a hit on the
// last cached commit, or a miss when nothing is cached.
func (f *Fetcher) checkRepo(ctx context.Context, ref RepoRef) repoState {
	st := repoState{ref: ref, key: ref.Key()}

	cctx, cancel := context.WithTimeout(ctx, f.opts.CheckTimeout)
	sha, err := f.origin.ResolveCommit(cctx, ref)
	cancel()
	if stderrors.Is(err, ErrThrottled) {
		if last := f.lastSHA(ctx, st.key); last != "" {
			f.logger.Debug("Baseline check throttled, serving cached commit", "repo", ref.String(), "sha", last)
			st.sha, st.hit, st.throttled = last, true, true
			return st
		}
	}
	if err != nil {
		st.checkErr = classify(err, "commit check", ref)
		f.logger.Warn("Baseline check failed", "repo", ref.String(), "error", st.checkErr)
		return st
	}
	st.sha = sha

	last := f.lastSHA(ctx, st.key)
	st.hit = last != "" && last == sha
	if st.hit {
		f.write(ctx, shaKey(st.key), sha, []byte(sha), f.opts.SHATTL)
	} else {
		f.logger.Debug("Baseline stale", "repo", ref.String(), "cachedSha", last, "sha", sha)
	}
	return st
}

// lastSHA is the commit of the most recent cached archive for key.
func (f *Fetcher) lastSHA(ctx context.Context, key string) string {
	if e, _, ok := f.lookup(ctx, shaKey(key)); ok {
		return string(e.value)
	}
	if e, _, ok := f.lookup(ctx, archiveKey(key)); ok {
		return e.sha
	}
	return ""
}

// archiveFor returns the archive for st, from cache on a hit, else from origin.
func (f *Fetcher) archiveFor(ctx context.Context, st repoState) ([]byte, Tier, error) {
	if st.hit {
		if e, tier, ok := f.lookup(ctx, archiveKey(st.key)); ok && e.sha == st.sha {
			return e.value, tier, nil
		}
	}

	fctx, cancel := context.WithTimeout(ctx, f.opts.FetchTimeout)
	defer cancel()

	f.logger.Info("Fetching baseline archive", "repo", st.ref.String(), "sha", st.sha)
	data, err := f.origin.FetchArchive(fctx, st.ref, st.sha)
	if err != nil {
		return nil, "", classify(err, "archive fetch", st.ref)
	}

	f.write(ctx, archiveKey(st.key), st.sha, data, f.opts.ArchiveTTL)
	if st.sha != "" {
		f.write(ctx, shaKey(st.key), st.sha, []byte(st.sha), f.opts.SHATTL)
	}
	return data, TierOrigin, nil
}

func (f *Fetcher) repoIndex(ctx context.Context, ref RepoRef) (*docs.Index, Status) {
	st := f.checkRepo(ctx, ref)

	if st.hit {
		if e, tier, ok := f.lookup(ctx, indexKey(st.key)); ok && e.sha == st.sha {
			if idx := decodeIndex(e.value); idx != nil {
				return idx, f.available(st, tier)
			}
		}
	}

	archive, tier, err := f.archiveFor(ctx, st)
	if err != nil {
		return nil, f.unavailable(st, err)
	}

	idx, err := f.buildIndex(archive, st.sha)
	if err != nil {
		return nil, f.unavailable(st, err)
	}
	if data, err := json.Marshal(idx); err == nil {
		f.write(ctx, indexKey(st.key), st.sha, data, f.opts.IndexTTL)
	}
	return idx, f.available(st, tier)
}

func (f *Fetcher) repoFile(ctx context.Context, ref RepoRef, rel string) (string, bool, Status) {
	st := f.checkRepo(ctx, ref)
	fk := fileKey(st.key, rel)

	if st.hit {
		if e, tier, ok := f.lookup(ctx, fk); ok && e.sha == st.sha {
			return string(e.value), true, f.available(st, tier)
		}
	}

	archive, tier, err := f.archiveFor(ctx, st)
	if err != nil {
		return "", false, f.unavailable(st, err)
	}
	files, _, err := ExtractArchive(archive, f.opts.Extract)
	if err != nil {
		return "", false, f.unavailable(st, err)
	}

	status := f.available(st, tier)
	for _, file := range files {
		if file.Path == rel {
			f.write(ctx, fk, st.sha, file.Content, f.opts.FileTTL)
			return string(file.Content), true, status
		}
	}
	return "", false, status
}

func (f *Fetcher) buildIndex(archive []byte, sha string) (*docs.Index, error) {
	files, skipped, err := ExtractArchive(archive, f.opts.Extract)
	if err != nil {
		return nil, err
	}
	documents, warnings := f.loader.LoadFiles(docs.OriginBaseline, files)
	warnings = append(skipped, warnings...)
	for _, w := range warnings {
		f.logger.Warn("Skipped baseline document", "path", w.Path, "reason", w.Reason)
	}
	f.logger.Debug("Built baseline index", "sha", sha, "files", len(files), "documents", len(documents))
	return docs.NewIndex(documents, len(warnings), true, sha), nil
}

func (f *Fetcher) available(st repoState, tier Tier) Status {
	status := Status{Available: true, Repo: st.ref.String(), SHA: st.sha, Tier: tier}
	if st.throttled {
		status.Cause = CauseCheckThrottled
	}
	return status
}

func (f *Fetcher) unavailable(st repoState, err error) Status {
	f.logger.Warn("Baseline unavailable", "repo", st.ref.String(), "error", err)
	return Status{Available: false, Repo: st.ref.String(), SHA: st.sha, Cause: err.Error()}
}

// lookup reads memory first, then the store. Store hits are promoted.
// Store errors are logged and treated as misses.
func (f *Fetcher) lookup(ctx context.Context, key string) (memoryEntry, Tier, bool) {
	if e, ok := f.memory.get(key); ok {
		return e, TierMemory, true
	}
	if f.store == nil {
		return memoryEntry{}, "", false
	}

	blob, found, err := f.store.Get(ctx, key)
	if err != nil {
		f.logger.Warn("Blob store read failed", "key", key, "error", err)
		return memoryEntry{}, "", false
	}
	if !found {
		return memoryEntry{}, "", false
	}
	f.memory.setUntil(key, blob.SHA, blob.Value, blob.ExpiresAt)
	return memoryEntry{sha: blob.SHA, value: blob.Value, expiresAt: blob.ExpiresAt}, TierStore, true
}

// write goes through memory to the store. A store failure only costs the
// durable copy.
func (f *Fetcher) write(ctx context.Context, key, sha string, value []byte, ttl time.Duration) {
	f.memory.set(key, sha, value, ttl)
	if f.store == nil {
		return
	}
	if err := f.store.Put(ctx, key, sha, value, ttl); err != nil {
		f.logger.Warn("Blob store write failed", "key", key, "error", err)
	}
}

func decodeIndex(data []byte) *docs.Index {
	var idx docs.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil
	}
	if idx.Version != version.IndexSchemaVersion {
		return nil
	}
	return &idx
}

func cleanFilePath(p string) (string, error) {
	rel := paths.NormalizePath(p)
	if rel != "" {
		rel = path.Clean(rel)
	}
	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", canonerrors.New(canonerrors.InvalidReference,
			fmt.Sprintf("invalid document path %q", p), nil)
	}
	return rel, nil
}

// classify maps a time-boxed call's failure onto the error taxonomy.
func classify(err error, what string, ref RepoRef) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return canonerrors.New(canonerrors.Timeout, fmt.Sprintf("%s for %s timed out", what, ref), err)
	}
	return canonerrors.New(canonerrors.BaselineUnavailable, fmt.Sprintf("%s for %s failed", what, ref), err)
}
