// Package envelope computes explainable confidence for search answers and wraps
// results in a transport-neutral response envelope.
package envelope

// ConfidenceTier is a coarse label for a confidence score.
type ConfidenceTier string

const (
	TierHigh        ConfidenceTier = "high"
	TierMedium      ConfidenceTier = "medium"
	TierLow         ConfidenceTier = "low"
	TierSpeculative ConfidenceTier = "speculative"
)

// ConfidenceFactor explains one component of the confidence score.
// Impact is Value * Weight, the contribution to the final score.
type ConfidenceFactor struct {
	Factor string  `json:"factor"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	Impact float64 `json:"impact"`
	Detail string  `json:"detail,omitempty"`
}

// Confidence describes result quality.
type Confidence struct {
	Score   float64            `json:"score"`
	Tier    ConfidenceTier     `json:"tier"`
	Reasons []string           `json:"reasons,omitempty"`
	Factors []ConfidenceFactor `json:"factors,omitempty"`
}

// Provenance describes which corpora contributed to the result.
type Provenance struct {
	Origins      []string `json:"origins"`
	BaselineSHA  string   `json:"baselineSha,omitempty"`
	BaselineTier string   `json:"baselineTier,omitempty"`
	IndexBuildID string   `json:"indexBuildId,omitempty"`
}

// Truncation describes result trimming.
type Truncation struct {
	IsTruncated bool   `json:"isTruncated"`
	Shown       int    `json:"shown,omitempty"`
	Total       int    `json:"total,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// CacheInfo describes how the baseline was served.
type CacheInfo struct {
	Hit  bool   `json:"hit"`
	Tier string `json:"tier,omitempty"`
	Key  string `json:"key,omitempty"`
}

// Meta holds response metadata.
type Meta struct {
	Confidence *Confidence `json:"confidence,omitempty"`
	Provenance *Provenance `json:"provenance,omitempty"`
	Truncation *Truncation `json:"truncation,omitempty"`
	Cache      *CacheInfo  `json:"cache,omitempty"`
}

// SuggestedCall represents a recommended follow-up tool call.
type SuggestedCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Warning represents a non-fatal issue.
type Warning struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Response is the standard envelope returned by transport adapters.
type Response struct {
	SchemaVersion      string          `json:"schemaVersion"`
	RequestID          string          `json:"requestId,omitempty"`
	Data               any             `json:"data"`
	Meta               *Meta           `json:"meta,omitempty"`
	Warnings           []Warning       `json:"warnings,omitempty"`
	Error              *string         `json:"error,omitempty"`
	ErrorCode          string          `json:"errorCode,omitempty"`
	SuggestedNextCalls []SuggestedCall `json:"suggestedNextCalls,omitempty"`
}

// CurrentSchemaVersion is the current envelope schema version.
const CurrentSchemaVersion = "1.0"
