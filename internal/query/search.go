package query

import (
	"fmt"
	"strings"

	"canon/internal/arbitration"
	"canon/internal/baseline"
	"canon/internal/config"
	"canon/internal/docs"
	"canon/internal/envelope"
	canonerrors "canon/internal/errors"
	"canon/internal/ranking"
)

// DefaultMaxEvidence bounds the evidence list.
const DefaultMaxEvidence = 5

// Options tune one search. The zero value searches every document with the
// default thresholds.
type Options struct {
	// BaselineUnavailable excludes every baseline document.
	BaselineUnavailable bool
	BaselineCause       string

	MinEvidence       int
	MaxEvidence       int
	AdvisoryThreshold float64
	Quote             ranking.QuoteLimits
}

// OptionsFromConfig maps the search config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinEvidence:       cfg.Search.MinEvidence,
		MaxEvidence:       cfg.Search.MaxEvidence,
		AdvisoryThreshold: cfg.Search.AdvisoryThreshold,
		Quote: ranking.QuoteLimits{
			MinWords: cfg.Search.MinQuoteWords,
			MaxWords: cfg.Search.MaxQuoteWords,
		},
	}
}

func (o *Options) applyDefaults() {
	if o.MinEvidence <= 0 {
		o.MinEvidence = envelope.DefaultMinEvidence
	}
	if o.MaxEvidence <= 0 {
		o.MaxEvidence = DefaultMaxEvidence
	}
	if o.AdvisoryThreshold <= 0 {
		o.AdvisoryThreshold = envelope.DefaultAdvisoryThreshold
	}
	if o.Quote.MinWords <= 0 {
		o.Quote.MinWords = ranking.DefaultMinQuoteWords
	}
	if o.Quote.MaxWords <= 0 {
		o.Quote.MaxWords = ranking.DefaultMaxQuoteWords
	}
}

// Source describes a document that contributed evidence.
type Source struct {
	Path          string             `json:"path"`
	Origin        docs.Origin        `json:"origin"`
	URI           string             `json:"uri,omitempty"`
	Title         string             `json:"title"`
	Intent        docs.Intent        `json:"intent"`
	AuthorityBand docs.AuthorityBand `json:"authorityBand"`
	Score         float64            `json:"score"`
	Signals       ranking.Signals    `json:"signals"`
}

// ArbitrationReport is the machine-readable arbitration outcome.
type ArbitrationReport struct {
	Outcome    arbitration.Outcome     `json:"outcome"`
	Violations []arbitration.Violation `json:"violations"`
	Vetoed     []arbitration.Vetoed    `json:"vetoed"`
}

// Debug carries diagnostics that do not affect the answer.
type Debug struct {
	BaselineUnavailable bool              `json:"baselineUnavailable"`
	BaselineCause       string            `json:"baselineCause,omitempty"`
	Suppressed          map[string]string `json:"suppressed"`
	QueryTokens         []string          `json:"queryTokens"`
	Candidates          int               `json:"candidates"`
	EvidenceDropped     int               `json:"evidenceDropped,omitempty"`
	IndexBuildID        string            `json:"indexBuildId,omitempty"`
}

// SearchResult is the answer to one query.
type SearchResult struct {
	Query          string                      `json:"query"`
	Status         envelope.Status             `json:"status"`
	Evidence       []ranking.Evidence          `json:"evidence"`
	Sources        []Source                    `json:"sources"`
	Confidence     envelope.Confidence         `json:"confidence"`
	Advisory       bool                        `json:"advisory"`
	Arbitration    ArbitrationReport           `json:"arbitration"`
	Contradictions []arbitration.Contradiction `json:"contradictions"`
	Debug          Debug                       `json:"debug"`

	// Baseline is set by Engine.Search when a fetcher is configured.
	Baseline *baseline.Status `json:"baseline,omitempty"`
}

// Search answers q from idx:
// exclude unavailable baseline documents, resolve supersedes, rank,
// arbitrate, extract evidence, then score confidence.
func Search(idx *docs.Index, q string, opts Options) (*SearchResult, error) {
	query, tokens, err := ParseQuery(q)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, canonerrors.New(canonerrors.IndexMissing, "no index to search", nil)
	}
	opts.applyDefaults()

	documents := idx.Documents
	if opts.BaselineUnavailable {
		documents = localOnly(documents)
	}

	resolution := arbitration.Resolve(documents)
	scorer := ranking.NewScorer(resolution.Filtered)
	ranked := scorer.Rank(resolution.Filtered, tokens)
	arb := arbitration.Arbitrate(ranked)

	res := &SearchResult{
		Query:          query,
		Evidence:       []ranking.Evidence{},
		Sources:        []Source{},
		Contradictions: []arbitration.Contradiction{},
		Arbitration: ArbitrationReport{
			Outcome:    arb.Outcome,
			Violations: arb.Violations,
			Vetoed:     arb.Vetoed,
		},
		Debug: Debug{
			BaselineUnavailable: opts.BaselineUnavailable,
			BaselineCause:       opts.BaselineCause,
			Suppressed:          resolution.Suppressed,
			QueryTokens:         tokens,
			Candidates:          len(ranked),
			IndexBuildID:        idx.BuildID,
		},
	}

	var contributors []envelope.Contributor
	var contributorDocs []*docs.Document
	var runnerUp float64
	hasRunnerUp := false

	for i, c := range arb.Ordered {
		if len(res.Evidence) >= opts.MaxEvidence {
			res.Debug.EvidenceDropped = countEvidence(arb.Ordered[i:], tokens, opts.Quote)
			break
		}
		ev, ok := evidenceFor(c.Document, tokens, opts.Quote)
		if !ok {
			if !hasRunnerUp || c.Score > runnerUp {
				runnerUp = c.Score
				hasRunnerUp = true
			}
			continue
		}

		res.Evidence = append(res.Evidence, ev)
		res.Sources = append(res.Sources, sourceOf(c))
		contributors = append(contributors, envelope.Contributor{
			Score:            c.Score,
			EvidenceStrength: c.Document.EvidenceStrength,
			Intent:           c.Document.Intent,
		})
		contributorDocs = append(contributorDocs, c.Document)
	}

	if contradictions := arbitration.DetectContradictions(contributorDocs); len(contradictions) > 0 {
		res.Contradictions = contradictions
	}

	res.Confidence = envelope.Calculate(envelope.ConfidenceInput{
		Contributors:   contributors,
		RunnerUpScore:  runnerUp,
		HasRunnerUp:    hasRunnerUp,
		MinEvidence:    opts.MinEvidence,
		Contradictions: len(res.Contradictions),
	})
	res.Status = envelope.StatusFor(len(res.Evidence), opts.MinEvidence)
	res.Advisory = envelope.IsAdvisory(res.Confidence.Score, opts.AdvisoryThreshold)

	if err := checkBaselineExcluded(res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// ParseQuery trims q and tokenizes it. A query without searchable terms is
// rejected with INVALID_QUERY.
func ParseQuery(q string) (string, []string, error) {
	query := strings.TrimSpace(q)
	if query == "" {
		return "", nil, canonerrors.New(canonerrors.InvalidQuery, "query is empty", nil)
	}
	tokens := ranking.QueryTokens(query)
	if len(tokens) == 0 {
		return "", nil, canonerrors.New(canonerrors.InvalidQuery,
			fmt.Sprintf("query %q has no searchable terms", query), nil)
	}
	return query, tokens, nil
}

// evidenceFor tries the document's regions best first and returns the first
// quote that meets the length bounds.
func evidenceFor(d *docs.Document, tokens []string, limits ranking.QuoteLimits) (ranking.Evidence, bool) {
	for _, h := range ranking.RankHeadings(d, tokens) {
		if ev, ok := ranking.ExtractEvidence(d, h, tokens, limits); ok {
			return ev, true
		}
	}
	return ranking.Evidence{}, false
}

// countEvidence counts the candidates that would have yielded a quote.
func countEvidence(candidates []ranking.ScoredCandidate, tokens []string, limits ranking.QuoteLimits) int {
	n := 0
	for _, c := range candidates {
		if _, ok := evidenceFor(c.Document, tokens, limits); ok {
			n++
		}
	}
	return n
}

func sourceOf(c ranking.ScoredCandidate) Source {
	d := c.Document
	return Source{
		Path:          d.Path,
		Origin:        d.Origin,
		URI:           d.URI,
		Title:         d.Title,
		Intent:        d.Intent,
		AuthorityBand: d.AuthorityBand,
		Score:         c.Score,
		Signals:       c.Signals,
	}
}

func localOnly(documents []docs.Document) []docs.Document {
	out := make([]docs.Document, 0, len(documents))
	for _, d := range documents {
		if d.Origin != docs.OriginBaseline {
			out = append(out, d)
		}
	}
	return out
}

// checkBaselineExcluded guards the output: with the baseline unreachable no
// baseline document may be cited. A hit here is a caching bug.
func checkBaselineExcluded(res *SearchResult, opts Options) error {
	if !opts.BaselineUnavailable {
		return nil
	}
	for _, ev := range res.Evidence {
		if ev.Origin == docs.OriginBaseline {
			return canonerrors.New(canonerrors.InvariantViolation,
				fmt.Sprintf("baseline document %s cited while baseline is unavailable", ev.Path), nil)
		}
	}
	for _, s := range res.Sources {
		if s.Origin == docs.OriginBaseline {
			return canonerrors.New(canonerrors.InvariantViolation,
				fmt.Sprintf("baseline source %s returned while baseline is unavailable", s.Path), nil)
		}
	}
	return nil
}
