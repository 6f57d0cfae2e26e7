package ranking

import (
	"math"
	"sort"
	"strings"

	"canon/internal/docs"
)

// BM25 parameters and field weights.
const (
	K1 = 1.2
	B  = 0.75

	TitleWeight   = 3.0
	TagWeight     = 2.0
	PathWeight    = 2.0
	HeadingWeight = 2.0
	PreviewWeight = 1.0

	GoverningBonus = 0.5
	PromotedBonus  = 0.5
)

// Signals explains how a score was composed.
type Signals struct {
	Lexical        float64  `json:"lexical"`
	GoverningBonus float64  `json:"governingBonus,omitempty"`
	PromotedBonus  float64  `json:"promotedBonus,omitempty"`
	MatchedTerms   []string `json:"matchedTerms"`
}

// ScoredCandidate is a document with its score for one query.
type ScoredCandidate struct {
	Document *docs.Document `json:"-"`
	Score    float64        `json:"score"`
	Signals  Signals        `json:"signals"`
}

type docStats struct {
	tf     map[string]float64
	length float64
}

// Scorer holds BM25 corpus statistics for one document set.
// It is immutable after construction and safe for concurrent use.
type Scorer struct {
	stats  map[string]docStats
	df     map[string]int
	n      int
	avgLen float64
}

// NewScorer computes corpus statistics over documents.
func NewScorer(documents []docs.Document) *Scorer {
	s := &Scorer{
		stats: make(map[string]docStats, len(documents)),
		df:    make(map[string]int),
		n:     len(documents),
	}
	var total float64
	for i := range documents {
		d := &documents[i]
		st := fieldStats(d)
		s.stats[d.Key()] = st
		total += st.length
		for term := range st.tf {
			s.df[term]++
		}
	}
	if s.n > 0 {
		s.avgLen = total / float64(s.n)
	}
	return s
}

// fieldStats builds the weighted term frequencies of a document.
func fieldStats(d *docs.Document) docStats {
	st := docStats{tf: make(map[string]float64)}
	add := func(text string, weight float64) {
		for _, tok := range Tokenize(text) {
			st.tf[tok] += weight
			st.length += weight
		}
	}
	add(d.Title, TitleWeight)
	add(strings.Join(d.Tags, " "), TagWeight)
	add(strings.ReplaceAll(d.Path, "/", " "), PathWeight)
	for _, h := range d.Headings {
		add(h.Text, HeadingWeight)
	}
	add(d.ContentPreview, PreviewWeight)
	return st
}

func (s *Scorer) idf(term string) float64 {
	df := float64(s.df[term])
	n := float64(s.n)
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Score returns the score of d for the query tokens and the signals behind it.
// Documents without lexical overlap score 0 and receive no bonus.
func (s *Scorer) Score(d *docs.Document, queryTokens []string) (float64, Signals) {
	st, ok := s.stats[d.Key()]
	if !ok {
		st = fieldStats(d)
	}

	sig := Signals{MatchedTerms: []string{}}
	avg := s.avgLen
	if avg == 0 {
		avg = st.length
	}
	for _, q := range queryTokens {
		tf := st.tf[q]
		if tf == 0 {
			continue
		}
		norm := 1.0
		if avg > 0 {
			norm = 1 - B + B*st.length/avg
		}
		sig.Lexical += s.idf(q) * tf * (K1 + 1) / (tf + K1*norm)
		sig.MatchedTerms = append(sig.MatchedTerms, q)
	}
	if sig.Lexical <= 0 {
		return 0, sig
	}

	if d.AuthorityBand == docs.BandGoverning {
		sig.GoverningBonus = GoverningBonus
	}
	if d.Intent == docs.IntentPromoted {
		sig.PromotedBonus = PromotedBonus
	}
	return sig.Lexical + sig.GoverningBonus + sig.PromotedBonus, sig
}

// Rank scores documents and returns those with a positive score, ordered by
// score descending, then path, then origin.
func (s *Scorer) Rank(documents []docs.Document, queryTokens []string) []ScoredCandidate {
	var out []ScoredCandidate
	for i := range documents {
		d := &documents[i]
		score, sig := s.Score(d, queryTokens)
		if score <= 0 {
			continue
		}
		out = append(out, ScoredCandidate{Document: d, Score: score, Signals: sig})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Document.Path != b.Document.Path {
			return a.Document.Path < b.Document.Path
		}
		return a.Document.Origin < b.Document.Origin
	})
	return out
}
