package models

// ConceptEdge is a labeled, directed relationship between two concepts.
// The JSON tags match the extraction service's conceptRelationship entries.
type ConceptEdge struct {
	ConceptA    string `json:"conceptA"`
	ConceptB    string `json:"conceptB"`
	Description string `json:"relationship"`
}

// ConceptGraph is the set of concept edges extracted from one article.
type ConceptGraph []ConceptEdge

// Dedup returns the graph without repeated (conceptA, conceptB, description)
// triples, keeping first-seen order.
func (g ConceptGraph) Dedup() ConceptGraph {
	if len(g) == 0 {
		return g
	}

	seen := make(map[ConceptEdge]struct{}, len(g))
	out := make(ConceptGraph, 0, len(g))

	for _, e := range g {
		if _, ok := seen[e]; ok {
			continue
		}

		seen[e] = struct{}{}
		out = append(out, e)
	}

	return out
}

// ConceptNames returns the distinct concept names referenced by the graph in
// first-seen order.
func (g ConceptGraph) ConceptNames() []string {
	seen := make(map[string]struct{}, len(g)*2)
	names := make([]string, 0, len(g)*2)

	for _, e := range g {
		for _, n := range [2]string{e.ConceptA, e.ConceptB} {
			if _, ok := seen[n]; ok {
				continue
			}

			seen[n] = struct{}{}
			names = append(names, n)
		}
	}

	return names
}

// IngestedArticle is everything the pipeline commits for one cache miss.
type IngestedArticle struct {
	Article Article
	Fields  []string
	Graph   ConceptGraph
	Diagram string
}

// GraphStats summarizes the size of the stored knowledge graph.
type GraphStats struct {
	Articles      int64 `json:"articles"`
	Concepts      int64 `json:"concepts"`
	Fields        int64 `json:"fields"`
	Relationships int64 `json:"relationships"`
}
