// Package network models who-votes-for-whom as a weighted directed graph and
// computes influence, reciprocity and voting blocs over it.
package network

import (
	"sort"

	"github.com/okian/songleague/internal/domain/dataset"
)

// Edge is a directed voter -> submitter link weighted by total points.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

type arc struct {
	to     int
	weight float64
}

// Graph is an immutable weighted directed graph. Node order is stable: the
// competitor table first, then identifiers missing from it in the order they
// were first seen.
type Graph struct {
	nodes []string
	names []string
	index map[string]int
	out   [][]arc // sorted by target index
	in    [][]arc // sorted by source index; arc.to holds the source
	total []float64
}

// Build collapses the votes of a snapshot into a graph in a single pass. Each
// vote with positive points adds its points to the edge from the voter to the
// song's submitter. Votes for songs without a submission are ignored.
func Build(snap *dataset.Snapshot, opts ...Option) *Graph {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{index: make(map[string]int)}
	add := func(id string) {
		if _, ok := g.index[id]; ok {
			return
		}
		g.index[id] = len(g.nodes)
		g.nodes = append(g.nodes, id)
		g.names = append(g.names, snap.DisplayName(id))
	}

	present := make(map[string]struct{})
	for _, id := range snap.Voters() {
		present[id] = struct{}{}
	}
	for _, id := range snap.Submitters() {
		present[id] = struct{}{}
	}
	for _, c := range snap.Competitors() {
		if _, ok := present[c.ID]; ok {
			add(c.ID)
		}
	}
	for _, id := range snap.Voters() {
		add(id)
	}
	for _, id := range snap.Submitters() {
		add(id)
	}

	type key struct{ from, to int }
	weights := make(map[key]float64)
	for _, v := range snap.Votes() {
		if v.Points <= 0 {
			continue
		}
		owner, ok := snap.Owner(v.Key())
		if !ok || (o.excludeSelf && owner == v.VoterID) {
			continue
		}
		weights[key{g.index[v.VoterID], g.index[owner]}] += float64(v.Points)
	}

	g.out = make([][]arc, len(g.nodes))
	g.in = make([][]arc, len(g.nodes))
	g.total = make([]float64, len(g.nodes))
	for k, w := range weights {
		g.out[k.from] = append(g.out[k.from], arc{to: k.to, weight: w})
		g.in[k.to] = append(g.in[k.to], arc{to: k.from, weight: w})
	}
	for i := range g.nodes {
		sortArcs(g.out[i])
		sortArcs(g.in[i])
		// Summed in index order so totals do not depend on map iteration.
		for _, a := range g.out[i] {
			g.total[i] += a.weight
		}
	}
	return g
}

func sortArcs(arcs []arc) {
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].to < arcs[j].to })
}

// Nodes returns the node identifiers in graph order.
func (g *Graph) Nodes() []string { return g.nodes }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Name returns the display name of a node.
func (g *Graph) Name(id string) string {
	if i, ok := g.index[id]; ok {
		return g.names[i]
	}
	return id
}

// Weight returns the weight of the edge from a to b, 0 when absent.
func (g *Graph) Weight(from, to string) float64 {
	i, ok := g.index[from]
	if !ok {
		return 0
	}
	j, ok := g.index[to]
	if !ok {
		return 0
	}
	return g.weight(i, j)
}

func (g *Graph) weight(i, j int) float64 {
	arcs := g.out[i]
	k := sort.Search(len(arcs), func(k int) bool { return arcs[k].to >= j })
	if k < len(arcs) && arcs[k].to == j {
		return arcs[k].weight
	}
	return 0
}

// HasEdge reports whether an edge from a to b exists.
func (g *Graph) HasEdge(from, to string) bool { return g.Weight(from, to) > 0 }

// OutWeight returns the total weight leaving a node.
func (g *Graph) OutWeight(id string) float64 {
	if i, ok := g.index[id]; ok {
		return g.total[i]
	}
	return 0
}

// Edges returns every edge ordered by source then target node order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for i, arcs := range g.out {
		for _, a := range arcs {
			edges = append(edges, Edge{From: g.nodes[i], To: g.nodes[a.to], Weight: a.weight})
		}
	}
	return edges
}
