package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"canon/internal/query"
	"canon/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp any) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case *query.SearchResult:
		return formatSearchHuman(v), nil
	case *query.IndexResult:
		return formatIndexHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatSearchHuman(res *query.SearchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", res.Query)
	fmt.Fprintf(&b, "Status: %s\n", res.Status)
	fmt.Fprintf(&b, "Confidence: %.2f (%s)\n", res.Confidence.Score, res.Confidence.Tier)
	if res.Advisory {
		b.WriteString("Advisory: confidence is below threshold, treat as guidance only\n")
	}
	if res.Debug.BaselineUnavailable {
		fmt.Fprintf(&b, "Baseline: unavailable (%s), local documents only\n", res.Debug.BaselineCause)
	} else if res.Baseline != nil {
		fmt.Fprintf(&b, "Baseline: %s (served from %s)\n", res.Baseline.Fingerprint(), res.Baseline.Tier)
	}

	if len(res.Evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for i, ev := range res.Evidence {
			fmt.Fprintf(&b, "  %d. %q\n", i+1, ev.Quote)
			fmt.Fprintf(&b, "     %s [%s]\n", ev.Citation, ev.Origin)
		}
	}

	if len(res.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, s := range res.Sources {
			fmt.Fprintf(&b, "  %-40s %-8s %-11s %-13s %.3f\n", s.Path, s.Origin, s.Intent, s.AuthorityBand, s.Score)
		}
	}

	if len(res.Arbitration.Vetoed) > 0 {
		b.WriteString("\nVetoed:\n")
		for _, v := range res.Arbitration.Vetoed {
			fmt.Fprintf(&b, "  %s (%s, %s)\n", v.Path, v.Intent, v.Origin)
		}
	}
	for _, v := range res.Arbitration.Violations {
		fmt.Fprintf(&b, "  %s (%s) outranked %s (%s)\n", v.LowPath, v.LowIntent, v.HighPath, v.HighIntent)
	}

	if len(res.Contradictions) > 0 {
		b.WriteString("\nContradictions:\n")
		for _, c := range res.Contradictions {
			fmt.Fprintf(&b, "  %s <> %s\n", c.A, c.B)
		}
	}

	if len(res.Debug.Suppressed) > 0 {
		b.WriteString("\nSuperseded:\n")
		keys := make([]string, 0, len(res.Debug.Suppressed))
		for k := range res.Debug.Suppressed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s by %s\n", k, res.Debug.Suppressed[k])
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatIndexHuman(res *query.IndexResult) string {
	var b strings.Builder

	stats := res.Index.Stats
	if res.Rebuilt {
		b.WriteString("Index rebuilt\n")
	} else {
		b.WriteString("Index is current\n")
	}
	fmt.Fprintf(&b, "Documents: %d (%d local, %d baseline)\n", stats.Total, stats.Local, stats.Baseline)
	if res.Index.BuildID != "" {
		fmt.Fprintf(&b, "Build: %s\n", res.Index.BuildID)
	}

	switch {
	case res.Baseline.AnyAvailable():
		fmt.Fprintf(&b, "Baseline: %s (served from %s)\n", res.Baseline.Fingerprint(), res.Baseline.Tier)
	case res.Baseline.Cause != "":
		fmt.Fprintf(&b, "Baseline: unavailable (%s)\n", res.Baseline.Cause)
	default:
		b.WriteString("Baseline: not configured\n")
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings (%d):\n", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "  %s [%s]: %s\n", w.Path, w.Origin, w.Reason)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatCacheStats summarizes what the cache database still holds.
func formatCacheStats(st storage.BlobStats) string {
	if st.Entries == 0 {
		return "Cache is empty"
	}
	return fmt.Sprintf("Cache holds %d entries (%d bytes compressed, %d bytes raw)",
		st.Entries, st.CompressedBytes, st.RawBytes)
}
