package envelope

import (
	"fmt"
	"math"

	"canon/internal/docs"
)

// Factor weights.
const (
	MarginWeight          = 0.4
	CoverageWeight        = 0.2
	EvidenceQualityWeight = 0.2
	IntentQualityWeight   = 0.2
	ConflictPenalty       = 0.3

	DefaultMinEvidence       = 2
	DefaultAdvisoryThreshold = 0.6
)

// Status is the support verdict of a search answer.
type Status string

const (
	StatusSupported            Status = "SUPPORTED"
	StatusInsufficientEvidence Status = "INSUFFICIENT_EVIDENCE"
)

// EvidenceQuality maps declared evidence strength to a quality weight.
var EvidenceQuality = map[docs.EvidenceStrength]float64{
	docs.EvidenceNone:   0.5,
	docs.EvidenceWeak:   0.7,
	docs.EvidenceMedium: 0.9,
	docs.EvidenceStrong: 1.0,
}

// Contributor is a document that supplied accepted evidence.
type Contributor struct {
	Score            float64
	EvidenceStrength docs.EvidenceStrength
	Intent           docs.Intent
}

// ConfidenceInput carries the visible signals of one answer.
//
// The margin compares the top contributor with the runner-up, which is the
// best examined candidate that yielded no quote. Two consequences follow:
// adding a matching document that yields no quote can lower confidence, and
// candidates ranked past the MaxEvidence cut are never examined, so they
// never become the runner-up.
type ConfidenceInput struct {
	Contributors []Contributor
	// RunnerUpScore is the best score among candidates examined for evidence
	// that produced none. HasRunnerUp is false when every examined candidate contributed.
	RunnerUpScore  float64
	HasRunnerUp    bool
	MinEvidence    int
	Contradictions int
}

// Calculate scores an answer:
// 0.4*margin + 0.2*coverage + 0.2*evidenceQuality + 0.2*intentQuality - 0.3*contradictions,
// clamped to [0,1].
func Calculate(in ConfidenceInput) Confidence {
	minEvidence := in.MinEvidence
	if minEvidence <= 0 {
		minEvidence = DefaultMinEvidence
	}

	top := 0.0
	for _, c := range in.Contributors {
		top = math.Max(top, c.Score)
	}

	var margin float64
	switch {
	case len(in.Contributors) == 0 || top <= 0:
		margin = 0
	case !in.HasRunnerUp:
		margin = 1
	default:
		margin = clamp((top - in.RunnerUpScore) / top)
	}

	coverage := math.Min(float64(len(in.Contributors))/float64(minEvidence), 1)

	var eqSum, iqSum float64
	for _, c := range in.Contributors {
		q, ok := EvidenceQuality[c.EvidenceStrength]
		if !ok {
			q = EvidenceQuality[docs.EvidenceNone]
		}
		eqSum += q
		if r := c.Intent.Rank(); r > 0 {
			iqSum += float64(r) / docs.MaxIntentRank
		}
	}
	var eq, iq float64
	if n := float64(len(in.Contributors)); n > 0 {
		eq = eqSum / n
		iq = iqSum / n
	}

	factors := []ConfidenceFactor{
		factor("margin", margin, MarginWeight, ""),
		factor("coverage", coverage, CoverageWeight, fmt.Sprintf("%d/%d evidence", len(in.Contributors), minEvidence)),
		factor("evidenceQuality", eq, EvidenceQualityWeight, ""),
		factor("intentQuality", iq, IntentQualityWeight, ""),
		factor("conflictPenalty", float64(in.Contradictions), -ConflictPenalty, ""),
	}

	var raw float64
	for _, f := range factors {
		raw += f.Impact
	}
	score := clamp(raw)

	conf := Confidence{
		Score:   score,
		Tier:    ScoreToTier(score),
		Factors: factors,
	}
	if in.Contradictions > 0 {
		conf.Reasons = append(conf.Reasons, fmt.Sprintf("%d contradiction(s) among evidence", in.Contradictions))
	}
	if len(in.Contributors) < minEvidence {
		conf.Reasons = append(conf.Reasons, "below minimum evidence")
	}
	return conf
}

func factor(name string, value, weight float64, detail string) ConfidenceFactor {
	return ConfidenceFactor{Factor: name, Value: value, Weight: weight, Impact: value * weight, Detail: detail}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// StatusFor returns SUPPORTED iff evidenceCount meets minEvidence.
func StatusFor(evidenceCount, minEvidence int) Status {
	if minEvidence <= 0 {
		minEvidence = DefaultMinEvidence
	}
	if evidenceCount >= minEvidence {
		return StatusSupported
	}
	return StatusInsufficientEvidence
}

// IsAdvisory reports whether a score falls below the advisory threshold.
func IsAdvisory(score, threshold float64) bool {
	return score < threshold
}

// ScoreToTier converts a confidence score (0.0-1.0) to a tier.
//
// Tier mapping:
//   - 0.80+ -> high
//   - 0.60-0.79 -> medium
//   - 0.30-0.59 -> low
//   - <0.30 -> speculative
func ScoreToTier(score float64) ConfidenceTier {
	switch {
	case score >= 0.80:
		return TierHigh
	case score >= 0.60:
		return TierMedium
	case score >= 0.30:
		return TierLow
	default:
		return TierSpeculative
	}
}
