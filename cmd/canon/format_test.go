package main

import (
	"encoding/json"
	"strings"
	"testing"

	"canon/internal/arbitration"
	"canon/internal/baseline"
	"canon/internal/docs"
	"canon/internal/envelope"
	"canon/internal/query"
	"canon/internal/ranking"
	"canon/internal/storage"
)

func sampleResult() *query.SearchResult {
	return &query.SearchResult{
		Query:  "retry policy",
		Status: envelope.StatusSupported,
		Evidence: []ranking.Evidence{
			{Quote: "Retries use exponential backoff with jitter.", Citation: "canon/retries.md#Policy", Origin: docs.OriginBaseline},
		},
		Sources: []query.Source{
			{Path: "canon/retries.md", Origin: docs.OriginBaseline, Intent: docs.IntentPromoted, AuthorityBand: docs.BandGoverning, Score: 2.5},
		},
		Confidence: envelope.Confidence{Score: 0.72, Tier: envelope.TierMedium},
		Arbitration: query.ArbitrationReport{
			Outcome: arbitration.OutcomeVetoed,
			Vetoed:  []arbitration.Vetoed{{Path: "docs/hack.md", Origin: docs.OriginLocal, Intent: docs.IntentWorkaround}},
		},
		Contradictions: []arbitration.Contradiction{
			{A: "local:docs/a.md", B: "baseline:canon/retries.md"},
		},
		Debug: query.Debug{Suppressed: map[string]string{"adr-007": "docs/adr/012.md"}},
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	if _, err := FormatResponse(sampleResult(), OutputFormat("yaml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatResponse_JSON(t *testing.T) {
	out, err := FormatResponse(sampleResult(), FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["status"] != "SUPPORTED" {
		t.Errorf("status = %v, want SUPPORTED", decoded["status"])
	}
}

func TestFormatSearchHuman(t *testing.T) {
	res := sampleResult()
	res.Baseline = &baseline.Status{Available: true, SHA: "abc123", Tier: baseline.TierMemory}

	out, err := FormatResponse(res, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse() error = %v", err)
	}

	for _, want := range []string{
		"Status: SUPPORTED",
		"Confidence: 0.72 (medium)",
		"Baseline: abc123 (served from memory)",
		"Retries use exponential backoff with jitter.",
		"canon/retries.md#Policy [baseline]",
		"local:docs/a.md <> baseline:canon/retries.md",
		"adr-007 by docs/adr/012.md",
		"docs/hack.md (workaround, local)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Advisory") {
		t.Error("non-advisory result should not print an advisory line")
	}
}

func TestFormatSearchHuman_BaselineUnavailable(t *testing.T) {
	res := sampleResult()
	res.Advisory = true
	res.Debug.BaselineUnavailable = true
	res.Debug.BaselineCause = "TIMEOUT"

	out := formatSearchHuman(res)
	if !strings.Contains(out, "Baseline: unavailable (TIMEOUT)") {
		t.Errorf("output missing unavailable baseline line:\n%s", out)
	}
	if !strings.Contains(out, "Advisory") {
		t.Errorf("output missing advisory line:\n%s", out)
	}
}

func TestFormatIndexHuman(t *testing.T) {
	tests := []struct {
		name   string
		status baseline.Status
		want   string
	}{
		{"available", baseline.Status{Available: true, SHA: "abc123", Tier: baseline.TierOrigin}, "Baseline: abc123 (served from origin)"},
		{"unavailable", baseline.Status{Cause: "TIMEOUT"}, "Baseline: unavailable (TIMEOUT)"},
		{"not configured", baseline.Status{}, "Baseline: not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &query.IndexResult{
				BuildResult: &docs.BuildResult{
					Index:    &docs.Index{BuildID: "b1", Stats: docs.IndexStats{Total: 3, Local: 2, Baseline: 1}},
					Warnings: []docs.Warning{{Path: "docs/bad.md", Origin: docs.OriginLocal, Reason: "invalid frontmatter"}},
				},
				Baseline: tt.status,
				Rebuilt:  true,
			}
			out := formatIndexHuman(res)
			for _, want := range []string{tt.want, "Index rebuilt", "Documents: 3 (2 local, 1 baseline)", "docs/bad.md [local]: invalid frontmatter"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestFormatCacheStats(t *testing.T) {
	if got := formatCacheStats(storage.BlobStats{}); got != "Cache is empty" {
		t.Errorf("empty = %q", got)
	}
	got := formatCacheStats(storage.BlobStats{Entries: 3, CompressedBytes: 120, RawBytes: 900})
	want := "Cache holds 3 entries (120 bytes compressed, 900 bytes raw)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
