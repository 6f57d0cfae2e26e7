package arbitration

import (
	"slices"

	"canon/internal/docs"
)

// Contradiction is a pair of documents where one declares it conflicts with the other.
type Contradiction struct {
	A   string `json:"a"`
	B   string `json:"b"`
	URI string `json:"uri"`
}

// DetectContradictions reports each unordered pair once, in input order.
func DetectContradictions(documents []*docs.Document) []Contradiction {
	var out []Contradiction
	for i := 0; i < len(documents); i++ {
		for j := i + 1; j < len(documents); j++ {
			a, b := documents[i], documents[j]
			switch {
			case b.URI != "" && slices.Contains(a.ConflictsWith, b.URI):
				out = append(out, Contradiction{A: a.Path, B: b.Path, URI: b.URI})
			case a.URI != "" && slices.Contains(b.ConflictsWith, a.URI):
				out = append(out, Contradiction{A: a.Path, B: b.Path, URI: a.URI})
			}
		}
	}
	return out
}
