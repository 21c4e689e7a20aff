package network

// Reciprocity describes how evenly two competitors traded points.
type Reciprocity struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	AToB  float64 `json:"a_to_b"`
	BToA  float64 `json:"b_to_a"`
	Ratio float64 `json:"ratio"`
}

// VotingReciprocity returns one row per unordered pair of distinct nodes with
// an edge in at least one direction, in graph order. Ratio is
// min(AToB, BToA) / max(AToB, BToA): 1 for perfectly mutual support, 0 when
// only one side gave points.
func VotingReciprocity(g *Graph) []Reciprocity {
	var rows []Reciprocity
	for i := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			ab, ba := g.weight(i, j), g.weight(j, i)
			if ab == 0 && ba == 0 {
				continue
			}
			rows = append(rows, Reciprocity{
				A:     g.nodes[i],
				B:     g.nodes[j],
				AToB:  ab,
				BToA:  ba,
				Ratio: min(ab, ba) / max(ab, ba),
			})
		}
	}
	return rows
}
