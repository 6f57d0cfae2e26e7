package arbitration

import (
	"canon/internal/docs"
	"canon/internal/ranking"
)

// Outcome summarizes an arbitration pass.
type Outcome string

const (
	OutcomeClean  Outcome = "clean"
	OutcomeVetoed Outcome = "vetoed"
)

// Violation records a low-durability document ranked above a high-durability one.
type Violation struct {
	LowPath    string      `json:"lowPath"`
	LowIntent  docs.Intent `json:"lowIntent"`
	HighPath   string      `json:"highPath"`
	HighIntent docs.Intent `json:"highIntent"`
}

// Vetoed identifies a demoted candidate.
type Vetoed struct {
	Path   string      `json:"path"`
	Origin docs.Origin `json:"origin"`
	Intent docs.Intent `json:"intent"`
}

// Result is the arbitrated ordering plus diagnostics.
type Result struct {
	Ordered    []ranking.ScoredCandidate `json:"-"`
	Outcome    Outcome                   `json:"outcome"`
	Violations []Violation               `json:"violations"`
	Vetoed     []Vetoed                  `json:"vetoed"`
}

// Arbitrate demotes every low-tier candidate (intent <= experiment) that ranks
// above a high-tier candidate (intent >= pattern) to the end of the list,
// unless it explicitly supersedes that candidate. Relative order within the
// kept and demoted groups is preserved. The veto ignores score magnitude.
func Arbitrate(candidates []ranking.ScoredCandidate) Result {
	res := Result{
		Outcome:    OutcomeClean,
		Violations: []Violation{},
		Vetoed:     []Vetoed{},
	}

	demoted := make([]bool, len(candidates))
	for i := range candidates {
		low := candidates[i].Document
		if !low.Intent.IsLow() {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			high := candidates[j].Document
			if !high.Intent.IsHigh() {
				continue
			}
			if high.URI != "" && low.Supersedes == high.URI {
				continue
			}
			res.Violations = append(res.Violations, Violation{
				LowPath:    low.Path,
				LowIntent:  low.Intent,
				HighPath:   high.Path,
				HighIntent: high.Intent,
			})
			demoted[i] = true
		}
	}

	res.Ordered = make([]ranking.ScoredCandidate, 0, len(candidates))
	var tail []ranking.ScoredCandidate
	for i, c := range candidates {
		if demoted[i] {
			tail = append(tail, c)
			res.Vetoed = append(res.Vetoed, Vetoed{Path: c.Document.Path, Origin: c.Document.Origin, Intent: c.Document.Intent})
			continue
		}
		res.Ordered = append(res.Ordered, c)
	}
	res.Ordered = append(res.Ordered, tail...)

	if len(res.Violations) > 0 {
		res.Outcome = OutcomeVetoed
	}
	return res
}
