package envelope

import (
	stderrors "errors"

	canonerrors "canon/internal/errors"
)

// Builder constructs Response envelopes using a fluent API.
type Builder struct {
	resp *Response
}

// New creates a new envelope builder.
func New() *Builder {
	return &Builder{
		resp: &Response{
			SchemaVersion: CurrentSchemaVersion,
		},
	}
}

func (b *Builder) meta() *Meta {
	if b.resp.Meta == nil {
		b.resp.Meta = &Meta{}
	}
	return b.resp.Meta
}

// Data sets the tool-specific payload.
func (b *Builder) Data(data any) *Builder {
	b.resp.Data = data
	return b
}

// RequestID tags the envelope with a correlation id.
func (b *Builder) RequestID(id string) *Builder {
	b.resp.RequestID = id
	return b
}

// WithConfidence attaches a computed confidence.
func (b *Builder) WithConfidence(c Confidence) *Builder {
	b.meta().Confidence = &c
	return b
}

// WithProvenance records which corpora contributed.
func (b *Builder) WithProvenance(p Provenance) *Builder {
	b.meta().Provenance = &p
	return b
}

// WithCache records how the baseline was served. An empty tier means no baseline.
func (b *Builder) WithCache(tier string) *Builder {
	if tier == "" {
		return b
	}
	b.meta().Cache = &CacheInfo{Hit: tier != "origin", Tier: tier}
	return b
}

// WithTruncation adds truncation metadata.
func (b *Builder) WithTruncation(truncated bool, shown, total int, reason string) *Builder {
	if !truncated {
		return b
	}
	b.meta().Truncation = &Truncation{
		IsTruncated: true,
		Shown:       shown,
		Total:       total,
		Reason:      reason,
	}
	return b
}

// Warning adds a warning message.
func (b *Builder) Warning(msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Message: msg})
	return b
}

// WarningWithCode adds a warning with a code.
func (b *Builder) WarningWithCode(code, msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Code: code, Message: msg})
	return b
}

// Error sets the error field, and the error code plus suggested fixes for coded errors.
func (b *Builder) Error(err error) *Builder {
	if err == nil {
		return b
	}
	msg := err.Error()
	b.resp.Error = &msg

	var ce *canonerrors.CanonError
	if stderrors.As(err, &ce) {
		b.resp.ErrorCode = string(ce.Code)
		for _, fix := range ce.SuggestedFixes {
			if fix.Type != canonerrors.RunCommand {
				continue
			}
			b.resp.SuggestedNextCalls = append(b.resp.SuggestedNextCalls, SuggestedCall{
				Tool:   fix.Command,
				Reason: fix.Description,
			})
		}
	}
	return b
}

// Suggest adds a follow-up call.
func (b *Builder) Suggest(tool string, params map[string]any, reason string) *Builder {
	b.resp.SuggestedNextCalls = append(b.resp.SuggestedNextCalls, SuggestedCall{
		Tool:   tool,
		Params: params,
		Reason: reason,
	})
	return b
}

// Build returns the completed response envelope.
func (b *Builder) Build() *Response {
	return b.resp
}

// Operational creates a simple envelope for administrative tools.
func Operational(data any) *Response {
	return &Response{
		SchemaVersion: CurrentSchemaVersion,
		Data:          data,
		Meta: &Meta{
			Confidence: &Confidence{
				Score: 1.0,
				Tier:  TierHigh,
			},
		},
	}
}
