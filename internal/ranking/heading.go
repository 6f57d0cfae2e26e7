package ranking

import (
	"sort"

	"canon/internal/docs"
)

// FindBestHeading returns the region whose heading text plus content shares
// the most distinct tokens with the query. Ties go to the earliest region.
// Returns nil when no region overlaps the query.
func FindBestHeading(d *docs.Document, queryTokens []string) *docs.Heading {
	ranked := RankHeadings(d, queryTokens)
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// RankHeadings returns every region overlapping the query, best first.
func RankHeadings(d *docs.Document, queryTokens []string) []*docs.Heading {
	type scored struct {
		h *docs.Heading
		n int
	}
	var all []scored
	for i := range d.Headings {
		h := &d.Headings[i]
		tokens := Tokenize(h.Text + "\n" + d.RegionText(*h))
		if n := overlap(queryTokens, tokens); n > 0 {
			all = append(all, scored{h: h, n: n})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].n > all[j].n })

	out := make([]*docs.Heading, len(all))
	for i, s := range all {
		out[i] = s.h
	}
	return out
}
