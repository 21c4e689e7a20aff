// Package model contains the raw league records passed between layers.
package model

// Round is one themed round of a league. Rounds are ordered by position in
// the snapshot they belong to.
type Round struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Competitor is a participant. The same ID is used when acting as a
// submitter and as a voter.
type Competitor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Submission is a song entered into a round.
type Submission struct {
	RoundID     string `json:"round_id"`
	SubmitterID string `json:"submitter_id"`
	SongID      string `json:"song_id"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// Key identifies the song this submission entered.
func (s Submission) Key() SongKey {
	return SongKey{RoundID: s.RoundID, SongID: s.SongID}
}

// Vote assigns points to a song within a round.
type Vote struct {
	RoundID string `json:"round_id"`
	VoterID string `json:"voter_id"`
	SongID  string `json:"song_id"`
	Points  int    `json:"points"`
	Comment string `json:"comment,omitempty"`
}

// Key identifies the song the vote was cast for.
func (v Vote) Key() SongKey {
	return SongKey{RoundID: v.RoundID, SongID: v.SongID}
}

// SongKey identifies a song within one league. The same track entered in two
// rounds is two songs.
type SongKey struct {
	RoundID string `json:"round_id"`
	SongID  string `json:"song_id"`
}

func (k SongKey) String() string {
	return k.RoundID + "/" + k.SongID
}

// Popularity bounds.
const (
	MinPopularity = 0
	MaxPopularity = 100
)

// Popularity maps a song ID to its external popularity in [0,100]. A missing
// entry means the popularity is unknown.
type Popularity map[string]int

// Lookup returns the popularity of a song and whether it is known.
func (p Popularity) Lookup(songID string) (int, bool) {
	v, ok := p[songID]
	return v, ok
}

// ValidPopularity reports whether v is inside the accepted range.
func ValidPopularity(v int) bool {
	return v >= MinPopularity && v <= MaxPopularity
}
