package network

import (
	"math"
	"sort"
)

// Influence is the PageRank score of one node.
type Influence struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// PageRankResult holds the scores in graph node order along with how the
// iteration ended.
type PageRankResult struct {
	Scores     []float64
	Iterations int
	Converged  bool
}

// PageRank computes weighted PageRank over the graph. Rank flows from voters
// to the submitters they gave points to, in proportion to the points.
//
// Nodes with no outgoing weight redistribute their rank uniformly across all
// nodes. Iteration stops once the L1 change drops below opts.Epsilon or after
// opts.MaxIterations rounds. Scores sum to 1.
func PageRank(g *Graph, opts PageRankOptions) PageRankResult {
	n := g.Len()
	if n == 0 {
		return PageRankResult{Converged: true}
	}

	nf := float64(n)
	base := (1.0 - opts.Damping) / nf

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / nf
	}
	next := make([]float64, n)

	res := PageRankResult{}
	for res.Iterations < opts.MaxIterations {
		res.Iterations++

		var danglingSum float64
		for i := range rank {
			if g.total[i] == 0 {
				danglingSum += rank[i]
			}
		}
		danglingShare := opts.Damping * danglingSum / nf

		for v := range next {
			var sum float64
			for _, a := range g.in[v] {
				sum += rank[a.to] * a.weight / g.total[a.to]
			}
			next[v] = base + opts.Damping*sum + danglingShare
		}

		var delta float64
		for i := range rank {
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if delta < opts.Epsilon {
			res.Converged = true
			break
		}
	}

	var total float64
	for _, r := range rank {
		total += r
	}
	for i := range rank {
		rank[i] /= total
	}
	res.Scores = rank
	return res
}

// InfluenceScores returns the PageRank score of every node keyed by ID.
func InfluenceScores(g *Graph, opts PageRankOptions) map[string]float64 {
	res := PageRank(g, opts)
	out := make(map[string]float64, g.Len())
	for i, id := range g.nodes {
		out[id] = res.Scores[i]
	}
	return out
}

// RankedInfluence returns nodes ordered by descending score. Equal scores
// keep graph order.
func RankedInfluence(g *Graph, res PageRankResult) []Influence {
	rows := make([]Influence, g.Len())
	for i, id := range g.nodes {
		rows[i] = Influence{ID: id, Name: g.names[i], Score: res.Scores[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
