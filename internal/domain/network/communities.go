package network

// Partition assigns every node to exactly one community.
type Partition struct {
	// Communities lists member IDs per community. Communities are numbered by
	// their first member in graph order; members keep graph order.
	Communities [][]string `json:"communities"`
	// Membership maps a node ID to its index in Communities.
	Membership map[string]int `json:"membership"`
	// Modularity of the partition on the undirected graph.
	Modularity float64 `json:"modularity"`
}

// Community returns the community index of a node.
func (p Partition) Community(id string) (int, bool) {
	c, ok := p.Membership[id]
	return c, ok
}

const (
	maxLouvainPasses = 100
	minGain          = 1e-12
)

type neighbor struct {
	node   int
	weight float64
}

// level is one stage of the Louvain hierarchy: an undirected graph whose
// nodes are the communities of the stage below.
type level struct {
	adj    [][]neighbor // without self-loops, sorted by node
	degree []float64    // weighted degree including internal weight
	m2     float64      // sum of degrees (twice the total weight)
}

func undirected(g *Graph) level {
	n := g.Len()
	lv := level{adj: make([][]neighbor, n), degree: make([]float64, n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := g.weight(i, j) + g.weight(j, i)
			if w == 0 {
				continue
			}
			lv.adj[i] = append(lv.adj[i], neighbor{node: j, weight: w})
			lv.adj[j] = append(lv.adj[j], neighbor{node: i, weight: w})
			lv.degree[i] += w
			lv.degree[j] += w
			lv.m2 += 2 * w
		}
	}
	return lv
}

// DetectCommunities partitions the graph into voting blocs with the Louvain
// method on the undirected graph whose edge weights are the sum of both
// directions. Self-loops are ignored.
//
// Nodes are visited in graph order and a node only leaves its community for a
// strictly better one, so the result is deterministic. Isolated nodes end up
// as singleton communities.
func DetectCommunities(g *Graph) Partition {
	base := undirected(g)
	n := g.Len()

	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	lv := base
	for lv.m2 > 0 {
		assign, moved := lv.localMoves()
		if !moved {
			break
		}
		assign, count := renumber(assign)
		for i := range membership {
			membership[i] = assign[membership[i]]
		}
		lv = lv.aggregate(assign, count)
	}

	final, _ := renumber(membership)
	p := Partition{Membership: make(map[string]int, n)}
	for i, id := range g.nodes {
		c := final[i]
		if c == len(p.Communities) {
			p.Communities = append(p.Communities, nil)
		}
		p.Communities[c] = append(p.Communities[c], id)
		p.Membership[id] = c
	}
	p.Modularity = base.modularity(final)
	return p
}

// localMoves runs Louvain phase one until no node changes community.
func (lv level) localMoves() ([]int, bool) {
	n := len(lv.adj)
	comm := make([]int, n)
	tot := make([]float64, n)
	for i := range comm {
		comm[i] = i
		tot[i] = lv.degree[i]
	}

	movedAny := false
	weights := make(map[int]float64)
	for pass := 0; pass < maxLouvainPasses; pass++ {
		moved := false
		for i := 0; i < n; i++ {
			ki := lv.degree[i]
			current := comm[i]

			clear(weights)
			var order []int
			for _, nb := range lv.adj[i] {
				c := comm[nb.node]
				if _, ok := weights[c]; !ok {
					order = append(order, c)
				}
				weights[c] += nb.weight
			}

			tot[current] -= ki
			best := current
			bestGain := weights[current] - tot[current]*ki/lv.m2
			for _, c := range order {
				gain := weights[c] - tot[c]*ki/lv.m2
				if gain > bestGain+minGain {
					best, bestGain = c, gain
				}
			}
			tot[best] += ki
			if best != current {
				comm[i] = best
				moved = true
				movedAny = true
			}
		}
		if !moved {
			break
		}
	}
	return comm, movedAny
}

// aggregate collapses each community into a single node.
func (lv level) aggregate(assign []int, count int) level {
	next := level{adj: make([][]neighbor, count), degree: make([]float64, count), m2: lv.m2}
	for i, d := range lv.degree {
		next.degree[assign[i]] += d
	}
	links := make([]map[int]float64, count)
	for i := range links {
		links[i] = make(map[int]float64)
	}
	for i, nbs := range lv.adj {
		for _, nb := range nbs {
			a, b := assign[i], assign[nb.node]
			if a != b {
				links[a][b] += nb.weight
			}
		}
	}
	for a := 0; a < count; a++ {
		for b := 0; b < count; b++ {
			if w, ok := links[a][b]; ok {
				next.adj[a] = append(next.adj[a], neighbor{node: b, weight: w})
			}
		}
	}
	return next
}

// renumber maps labels to 0..k-1 by first appearance.
func renumber(labels []int) ([]int, int) {
	ids := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out, len(ids)
}

// modularity evaluates Q = sum_c [in_c/m2 - (tot_c/m2)^2].
func (lv level) modularity(comm []int) float64 {
	if lv.m2 == 0 {
		return 0
	}
	k := 0
	for _, c := range comm {
		k = max(k, c+1)
	}
	in := make([]float64, k)
	tot := make([]float64, k)
	for i, nbs := range lv.adj {
		tot[comm[i]] += lv.degree[i]
		for _, nb := range nbs {
			if comm[nb.node] == comm[i] {
				in[comm[i]] += nb.weight
			}
		}
	}
	var q float64
	for c := range in {
		q += in[c]/lv.m2 - (tot[c]/lv.m2)*(tot[c]/lv.m2)
	}
	return q
}
