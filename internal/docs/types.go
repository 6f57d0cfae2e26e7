// Package docs loads governance documents from markdown with frontmatter,
// classifies them by authority and intent, and persists the resulting index.
package docs

import "time"

// Origin tells where a document came from.
type Origin string

const (
	OriginLocal    Origin = "local"
	OriginBaseline Origin = "baseline"
)

// AuthorityBand is the trust classification of a document's source location.
type AuthorityBand string

const (
	BandGoverning    AuthorityBand = "governing"
	BandOperational  AuthorityBand = "operational"
	BandNonGoverning AuthorityBand = "non-governing"
)

// Valid reports whether b is a known band.
func (b AuthorityBand) Valid() bool {
	switch b {
	case BandGoverning, BandOperational, BandNonGoverning:
		return true
	}
	return false
}

// Intent is the durability classification of a document.
// Ordered: workaround < experiment < operational < pattern < promoted.
type Intent string

const (
	IntentWorkaround  Intent = "workaround"
	IntentExperiment  Intent = "experiment"
	IntentOperational Intent = "operational"
	IntentPattern     Intent = "pattern"
	IntentPromoted    Intent = "promoted"
)

// MaxIntentRank is the rank of the most durable intent.
const MaxIntentRank = 4

// Rank returns the position of the intent in the durability order, or -1 if unknown.
func (i Intent) Rank() int {
	switch i {
	case IntentWorkaround:
		return 0
	case IntentExperiment:
		return 1
	case IntentOperational:
		return 2
	case IntentPattern:
		return 3
	case IntentPromoted:
		return 4
	}
	return -1
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool { return i.Rank() >= 0 }

// IsHigh reports intent >= pattern.
func (i Intent) IsHigh() bool { return i.Rank() >= IntentPattern.Rank() }

// IsLow reports a known intent <= experiment.
func (i Intent) IsLow() bool { return i.Valid() && i.Rank() <= IntentExperiment.Rank() }

// EvidenceStrength is the declared strength of a document's backing evidence.
type EvidenceStrength string

const (
	EvidenceNone   EvidenceStrength = "none"
	EvidenceWeak   EvidenceStrength = "weak"
	EvidenceMedium EvidenceStrength = "medium"
	EvidenceStrong EvidenceStrength = "strong"
)

// Valid reports whether e is a known strength.
func (e EvidenceStrength) Valid() bool {
	switch e {
	case EvidenceNone, EvidenceWeak, EvidenceMedium, EvidenceStrong:
		return true
	}
	return false
}

// FrontmatterFormat records which fence a document used.
type FrontmatterFormat string

const (
	FrontmatterNone FrontmatterFormat = "none"
	FrontmatterYAML FrontmatterFormat = "yaml"
	FrontmatterTOML FrontmatterFormat = "toml"
)

// Heading is an ATX heading and the body region it owns.
// Level 0 with empty text is the preamble before the first heading.
// Lines are 1-indexed into the body and inclusive.
type Heading struct {
	Level     int    `json:"level"`
	Text      string `json:"text"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Document is one indexed unit.
type Document struct {
	Path              string            `json:"path"`
	Origin            Origin            `json:"origin"`
	URI               string            `json:"uri,omitempty"`
	Title             string            `json:"title"`
	Subtitle          string            `json:"subtitle,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	AuthorityBand     AuthorityBand     `json:"authorityBand"`
	Intent            Intent            `json:"intent"`
	EvidenceStrength  EvidenceStrength  `json:"evidenceStrength"`
	Supersedes        string            `json:"supersedes,omitempty"`
	ConflictsWith     []string          `json:"conflictsWith,omitempty"`
	ContentHash       string            `json:"contentHash"`
	Headings          []Heading         `json:"headings"`
	ContentPreview    string            `json:"contentPreview"`
	ContentLength     int               `json:"contentLength"`
	FrontmatterFormat FrontmatterFormat `json:"frontmatterFormat"`
	Body              string            `json:"body"`
}

// Key identifies a document within one index snapshot.
func (d *Document) Key() string {
	return string(d.Origin) + ":" + d.Path
}

// Lines returns the body split into lines, matching Heading line numbers.
func (d *Document) Lines() []string {
	return splitLines(d.Body)
}

// RegionText returns the body text covered by h.
func (d *Document) RegionText(h Heading) string {
	lines := d.Lines()
	start := h.StartLine - 1
	end := h.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	out := lines[start:end]
	// Skip the heading line itself.
	if h.Level > 0 && len(out) > 0 {
		out = out[1:]
	}
	return joinLines(out)
}

// Warning describes a per-file problem encountered while loading.
// Warnings never abort a build.
type Warning struct {
	Path   string `json:"path"`
	Origin Origin `json:"origin"`
	Reason string `json:"reason"`
}

// IndexStats aggregates counts over an index.
type IndexStats struct {
	Total    int                   `json:"total"`
	Local    int                   `json:"local"`
	Baseline int                   `json:"baseline"`
	ByIntent map[Intent]int        `json:"byIntent"`
	ByBand   map[AuthorityBand]int `json:"byBand"`
	Warnings int                   `json:"warnings"`
}

// Index is an immutable snapshot of loaded documents.
type Index struct {
	Version          int        `json:"version"`
	GeneratedAt      time.Time  `json:"generatedAt"`
	BuildID          string     `json:"buildId"`
	Documents        []Document `json:"documents"`
	Stats            IndexStats `json:"stats"`
	BaselineIncluded bool       `json:"baselineIncluded"`
	BaselineSHA      string     `json:"baselineSha,omitempty"`
}

// BuildResult is a built index plus the warnings collected while loading it.
type BuildResult struct {
	Index    *Index    `json:"index"`
	Warnings []Warning `json:"warnings"`
}
