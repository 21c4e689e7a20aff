package league

import (
	"sort"

	"github.com/okian/songleague/internal/domain/songs"
)

// SongPerformance is how a shared song did in one league.
type SongPerformance struct {
	RoundID     string  `json:"round_id"`
	SubmitterID string  `json:"submitter_id"`
	Submitter   string  `json:"submitter"`
	TotalPoints int     `json:"total_points"`
	Controversy float64 `json:"controversy"`
}

// SongOverlap is a song submitted in two or more leagues. Leagues[i] is nil
// when the song was not submitted in events[i].
type SongOverlap struct {
	SongID  string             `json:"song_id"`
	Title   string             `json:"title,omitempty"`
	Artist  string             `json:"artist,omitempty"`
	Count   int                `json:"count"`
	Leagues []*SongPerformance `json:"leagues"`
}

// SongOverlapAnalysis returns the songs whose identifier appears in at least
// two leagues, most widely shared first and then in order of first
// appearance. Within one league the first submission of a song is used.
func SongOverlapAnalysis(events []Event) []SongOverlap {
	index := make(map[string]int)
	var rows []SongOverlap
	for i, ev := range events {
		snap := ev.Snapshot
		for _, sub := range snap.Submissions() {
			idx, ok := index[sub.SongID]
			if !ok {
				idx = len(rows)
				index[sub.SongID] = idx
				rows = append(rows, SongOverlap{
					SongID:  sub.SongID,
					Title:   sub.Title,
					Artist:  sub.Artist,
					Leagues: make([]*SongPerformance, len(events)),
				})
			}
			if rows[idx].Leagues[i] != nil {
				continue
			}
			m, err := songs.Compute(snap, sub.Key())
			if err != nil {
				continue
			}
			rows[idx].Leagues[i] = &SongPerformance{
				RoundID:     m.RoundID,
				SubmitterID: m.SubmitterID,
				Submitter:   m.Submitter,
				TotalPoints: m.TotalPoints,
				Controversy: m.Controversy,
			}
			rows[idx].Count++
		}
	}

	shared := rows[:0]
	for _, r := range rows {
		if r.Count >= 2 {
			shared = append(shared, r)
		}
	}
	sort.SliceStable(shared, func(i, j int) bool { return shared[i].Count > shared[j].Count })
	return shared
}
