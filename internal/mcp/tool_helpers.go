package mcp

import (
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"canon/internal/baseline"
	"canon/internal/envelope"
	canonerrors "canon/internal/errors"
	"canon/internal/query"
)

// respond renders an envelope as the tool's text content. Failures travel
// inside the envelope, so the protocol-level error is reserved for encoding
// problems.
func respond(resp *envelope.Response) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, nil, canonerrors.New(canonerrors.InternalError, "marshal response", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: resp.Error != nil,
	}, nil, nil
}

func parseCanon(s string) (*baseline.RepoRef, error) {
	if s == "" {
		return nil, nil
	}
	ref, err := baseline.ParseRepoRef(s)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func searchResponse(requestID string, res *query.SearchResult) *envelope.Response {
	b := envelope.New().
		RequestID(requestID).
		Data(res).
		WithConfidence(res.Confidence)

	prov := envelope.Provenance{
		Origins:      origins(res.Sources),
		IndexBuildID: res.Debug.IndexBuildID,
	}
	if res.Baseline != nil {
		prov.BaselineSHA = res.Baseline.Fingerprint()
		prov.BaselineTier = string(res.Baseline.Tier)
		b.WithCache(string(res.Baseline.Tier))
	}
	b.WithProvenance(prov)

	if dropped := res.Debug.EvidenceDropped; dropped > 0 {
		shown := len(res.Evidence)
		b.WithTruncation(true, shown, shown+dropped, "max-evidence")
	}

	if res.Debug.BaselineUnavailable {
		msg := "baseline unavailable; answered from local documents only"
		if res.Debug.BaselineCause != "" {
			msg += ": " + res.Debug.BaselineCause
		}
		b.WarningWithCode(string(canonerrors.BaselineUnavailable), msg)
	}
	if res.Status == envelope.StatusInsufficientEvidence {
		b.Warning("insufficient evidence to support an answer")
	} else if res.Advisory {
		b.Warning("confidence is below the advisory threshold")
	}
	return b.Build()
}

func fetchResponse(requestID string, res *baseline.FileResult) *envelope.Response {
	b := envelope.New().
		RequestID(requestID).
		Data(res).
		WithCache(string(res.Status.Tier))
	if !res.Found {
		b.Warning("file not found in the baseline: " + res.Path)
	}
	return b.Build()
}

func invalidateResponse(requestID, canon string) *envelope.Response {
	target := canon
	if target == "" {
		target = "baseline"
	}
	resp := envelope.Operational(map[string]any{
		"invalidated": target,
	})
	resp.RequestID = requestID
	return resp
}

func errorResponse(requestID string, err error) *envelope.Response {
	return envelope.New().
		RequestID(requestID).
		Data(nil).
		Error(err).
		Build()
}

// origins lists the distinct corpora among the sources.
func origins(sources []query.Source) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range sources {
		o := string(s.Origin)
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	sort.Strings(out)
	return out
}
