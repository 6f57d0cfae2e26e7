// Package arbitration removes superseded documents and enforces intent precedence
// over a ranked candidate list.
package arbitration

import "canon/internal/docs"

// Resolution is the output of Resolve.
type Resolution struct {
	Filtered []docs.Document `json:"filtered"`
	// Suppressed maps a superseded URI to the path of the document that superseded it.
	Suppressed map[string]string `json:"suppressed"`
}

// Resolve drops every document whose URI is named by another document's
// supersedes field. Only direct declarations count; a URI is attributed to
// the first declaring document in input order. Input order is preserved.
func Resolve(documents []docs.Document) Resolution {
	res := Resolution{Suppressed: make(map[string]string)}

	// index of the first document superseding each URI
	winner := make(map[string]int)
	for i := range documents {
		u := documents[i].Supersedes
		if u == "" {
			continue
		}
		if _, ok := winner[u]; !ok {
			winner[u] = i
		}
	}
	if len(winner) == 0 {
		res.Filtered = documents
		return res
	}

	res.Filtered = make([]docs.Document, 0, len(documents))
	for i := range documents {
		d := &documents[i]
		if w, ok := winner[d.URI]; ok && d.URI != "" && w != i {
			if _, recorded := res.Suppressed[d.URI]; !recorded {
				res.Suppressed[d.URI] = documents[w].Path
			}
			continue
		}
		res.Filtered = append(res.Filtered, *d)
	}
	return res
}
