package voters

import (
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/stats"
)

// Matrix is a symmetric voter-by-voter correlation table. Values[i][j] is the
// similarity of Voters[i] and Voters[j].
type Matrix struct {
	Voters []string    `json:"voters"`
	Names  []string    `json:"names"`
	Values [][]float64 `json:"values"`
}

// Lookup returns the similarity of two voters.
func (m Matrix) Lookup(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m Matrix) index(id string) int {
	for i, v := range m.Voters {
		if v == id {
			return i
		}
	}
	return -1
}

// OffDiagonal returns the defined entries above the diagonal.
func (m Matrix) OffDiagonal() []float64 {
	var out []float64
	for i := range m.Values {
		for j := i + 1; j < len(m.Values); j++ {
			if v := m.Values[i][j]; !stats.IsUndefinedCorrelation(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// SimilarityMatrix correlates every pair of voters over the songs both of
// them scored. The diagonal is 1; pairs with fewer than two common songs or a
// constant series hold stats.UndefinedCorrelation.
func SimilarityMatrix(snap *dataset.Snapshot, opts ...Option) Matrix {
	o := newOptions(opts)

	var ids []string
	var ballots []ballot
	for _, id := range snap.Voters() {
		votes := scopedVotes(snap, id, o)
		if len(votes) == 0 {
			continue
		}
		ids = append(ids, id)
		ballots = append(ballots, newBallot(votes))
	}

	m := Matrix{
		Voters: ids,
		Names:  make([]string, len(ids)),
		Values: make([][]float64, len(ids)),
	}
	for i, id := range ids {
		m.Names[i] = snap.DisplayName(id)
		m.Values[i] = make([]float64, len(ids))
		m.Values[i][i] = 1
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			v := pairSimilarity(ballots[i], ballots[j])
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m
}

func pairSimilarity(a, b ballot) float64 {
	var x, y []float64
	for _, k := range a.keys {
		if p, ok := b.points[k]; ok {
			x = append(x, a.points[k])
			y = append(y, p)
		}
	}
	return stats.SpearmanOr(x, y)
}
