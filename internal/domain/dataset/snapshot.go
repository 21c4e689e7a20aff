// Package dataset holds the immutable, indexed view of one league that every
// metric is computed from.
package dataset

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/songleague/internal/domain/model"
)

// Data is the raw content of a league as loaded from its export.
type Data struct {
	Rounds      []model.Round
	Competitors []model.Competitor
	Submissions []model.Submission
	Votes       []model.Vote
	Popularity  model.Popularity
}

// Snapshot is a validated, read-only league. All slices returned by its
// methods are shared with the snapshot and must not be modified.
//
// Every ordering exposed by a Snapshot follows the input order, so metrics
// iterating over it are deterministic.
type Snapshot struct {
	name string

	rounds      []model.Round
	competitors []model.Competitor
	submissions []model.Submission
	votes       []model.Vote
	popularity  model.Popularity

	roundIdx      map[string]int
	competitorIdx map[string]int

	subByKey        map[model.SongKey]int
	subsBySubmitter map[string][]model.Submission
	subsByRound     map[string][]model.Submission

	votesByKey   map[model.SongKey][]model.Vote
	votesByVoter map[string][]model.Vote

	voters     []string
	submitters []string

	fingerprint uint64
}

// New validates d and builds a snapshot named name. The input slices are
// copied.
func New(name string, d Data) (*Snapshot, error) {
	s := &Snapshot{
		name:            name,
		rounds:          slices.Clone(d.Rounds),
		competitors:     slices.Clone(d.Competitors),
		submissions:     slices.Clone(d.Submissions),
		votes:           slices.Clone(d.Votes),
		popularity:      make(model.Popularity, len(d.Popularity)),
		roundIdx:        make(map[string]int, len(d.Rounds)),
		competitorIdx:   make(map[string]int, len(d.Competitors)),
		subByKey:        make(map[model.SongKey]int, len(d.Submissions)),
		subsBySubmitter: make(map[string][]model.Submission),
		subsByRound:     make(map[string][]model.Submission),
		votesByKey:      make(map[model.SongKey][]model.Vote),
		votesByVoter:    make(map[string][]model.Vote),
	}

	for i, r := range s.rounds {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: round %d has an empty id", ErrMalformed, i)
		}
		if _, dup := s.roundIdx[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate round %q", ErrMalformed, r.ID)
		}
		s.roundIdx[r.ID] = i
	}

	for i, c := range s.competitors {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: competitor %d has an empty id", ErrMalformed, i)
		}
		if _, dup := s.competitorIdx[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate competitor %q", ErrMalformed, c.ID)
		}
		s.competitorIdx[c.ID] = i
	}

	for i, sub := range s.submissions {
		if sub.SubmitterID == "" || sub.SongID == "" {
			return nil, fmt.Errorf("%w: submission %d is missing submitter or song", ErrMalformed, i)
		}
		if _, ok := s.roundIdx[sub.RoundID]; !ok {
			return nil, fmt.Errorf("%w: submission %d references unknown round %q", ErrMalformed, i, sub.RoundID)
		}
		// First submission owns a duplicated (round, song) key.
		if _, seen := s.subByKey[sub.Key()]; !seen {
			s.subByKey[sub.Key()] = i
		}
		s.subsBySubmitter[sub.SubmitterID] = append(s.subsBySubmitter[sub.SubmitterID], sub)
		s.subsByRound[sub.RoundID] = append(s.subsByRound[sub.RoundID], sub)
	}

	for i, v := range s.votes {
		if v.VoterID == "" || v.SongID == "" {
			return nil, fmt.Errorf("%w: vote %d is missing voter or song", ErrMalformed, i)
		}
		if v.Points < 0 {
			return nil, fmt.Errorf("%w: vote %d has negative points %d", ErrMalformed, i, v.Points)
		}
		if _, ok := s.roundIdx[v.RoundID]; !ok {
			return nil, fmt.Errorf("%w: vote %d references unknown round %q", ErrMalformed, i, v.RoundID)
		}
		s.votesByKey[v.Key()] = append(s.votesByKey[v.Key()], v)
		s.votesByVoter[v.VoterID] = append(s.votesByVoter[v.VoterID], v)
	}

	for id, p := range d.Popularity {
		if !model.ValidPopularity(p) {
			return nil, fmt.Errorf("%w: popularity %d for %q is outside [0,100]", ErrMalformed, p, id)
		}
		s.popularity[id] = p
	}

	voterIDs := make([]string, len(s.votes))
	for i, v := range s.votes {
		voterIDs[i] = v.VoterID
	}
	submitterIDs := make([]string, len(s.submissions))
	for i, sub := range s.submissions {
		submitterIDs[i] = sub.SubmitterID
	}
	s.voters = s.participants(voterIDs)
	s.submitters = s.participants(submitterIDs)
	s.fingerprint = s.computeFingerprint()
	return s, nil
}

// participants orders ids by the competitor table, followed by IDs missing
// from it in first-seen order.
func (s *Snapshot) participants(ids []string) []string {
	present := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}
	out := make([]string, 0, len(present))
	for _, c := range s.competitors {
		if _, ok := present[c.ID]; ok {
			out = append(out, c.ID)
			delete(present, c.ID)
		}
	}
	for _, id := range ids {
		if _, ok := present[id]; ok {
			out = append(out, id)
			delete(present, id)
		}
	}
	return out
}

// Name returns the league name the snapshot was built for.
func (s *Snapshot) Name() string { return s.name }

func (s *Snapshot) Rounds() []model.Round           { return s.rounds }
func (s *Snapshot) Competitors() []model.Competitor { return s.competitors }
func (s *Snapshot) Submissions() []model.Submission { return s.submissions }
func (s *Snapshot) Votes() []model.Vote             { return s.votes }

// Voters returns every ID that cast at least one vote.
func (s *Snapshot) Voters() []string { return s.voters }

// Submitters returns every ID that entered at least one song.
func (s *Snapshot) Submitters() []string { return s.submitters }

// Round returns the round with the given ID and its position.
func (s *Snapshot) Round(id string) (model.Round, int, error) {
	i, ok := s.roundIdx[id]
	if !ok {
		return model.Round{}, -1, fmt.Errorf("%w: round %q", ErrEntityNotFound, id)
	}
	return s.rounds[i], i, nil
}

// Competitor returns the competitor with the given ID.
func (s *Snapshot) Competitor(id string) (model.Competitor, error) {
	i, ok := s.competitorIdx[id]
	if !ok {
		return model.Competitor{}, fmt.Errorf("%w: competitor %q", ErrEntityNotFound, id)
	}
	return s.competitors[i], nil
}

// HasCompetitor reports whether id is a competitor or at least appears in a
// submission or vote.
func (s *Snapshot) HasCompetitor(id string) bool {
	if _, ok := s.competitorIdx[id]; ok {
		return true
	}
	return len(s.subsBySubmitter[id]) > 0 || len(s.votesByVoter[id]) > 0
}

// DisplayName returns the competitor name, or the ID itself when the
// competitor table has no entry for it.
func (s *Snapshot) DisplayName(id string) string {
	if i, ok := s.competitorIdx[id]; ok && s.competitors[i].Name != "" {
		return s.competitors[i].Name
	}
	return id
}

// Submission returns the submission that owns key.
func (s *Snapshot) Submission(key model.SongKey) (model.Submission, error) {
	i, ok := s.subByKey[key]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: song %s", ErrEntityNotFound, key)
	}
	return s.submissions[i], nil
}

// Owner returns the submitter of the song identified by key.
func (s *Snapshot) Owner(key model.SongKey) (string, bool) {
	i, ok := s.subByKey[key]
	if !ok {
		return "", false
	}
	return s.submissions[i].SubmitterID, true
}

// SubmissionsBy returns the submissions of a submitter in input order.
func (s *Snapshot) SubmissionsBy(submitterID string) []model.Submission {
	return s.subsBySubmitter[submitterID]
}

// SubmissionsIn returns the submissions of a round in input order.
func (s *Snapshot) SubmissionsIn(roundID string) []model.Submission {
	return s.subsByRound[roundID]
}

// VotesFor returns the votes cast for a song.
func (s *Snapshot) VotesFor(key model.SongKey) []model.Vote {
	return s.votesByKey[key]
}

// VotesBy returns the votes cast by a voter.
func (s *Snapshot) VotesBy(voterID string) []model.Vote {
	return s.votesByVoter[voterID]
}

// Points returns the total points a song received.
func (s *Snapshot) Points(key model.SongKey) int {
	total := 0
	for _, v := range s.votesByKey[key] {
		total += v.Points
	}
	return total
}

// Credited returns the points sub earned for its submitter. A submission
// that does not own its key earns nothing.
func (s *Snapshot) Credited(sub model.Submission) int {
	if owner, ok := s.Owner(sub.Key()); !ok || owner != sub.SubmitterID {
		return 0
	}
	return s.Points(sub.Key())
}

// Popularity returns the popularity of a song and whether it is known.
func (s *Snapshot) Popularity(songID string) (int, bool) {
	return s.popularity.Lookup(songID)
}

// Fingerprint identifies the snapshot content. Two snapshots built from the
// same records in the same order share a fingerprint regardless of name.
func (s *Snapshot) Fingerprint() uint64 { return s.fingerprint }

func (s *Snapshot) computeFingerprint() uint64 {
	d := xxhash.New()
	field := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.Write([]byte{0x1f})
		}
		_, _ = d.Write([]byte{0x1e})
	}

	field("rounds")
	for _, r := range s.rounds {
		field(r.ID, r.Name)
	}
	field("competitors")
	for _, c := range s.competitors {
		field(c.ID, c.Name)
	}
	field("submissions")
	for _, sub := range s.submissions {
		field(sub.RoundID, sub.SubmitterID, sub.SongID, sub.Title, sub.Artist, sub.Comment)
	}
	field("votes")
	for _, v := range s.votes {
		field(v.RoundID, v.VoterID, v.SongID, strconv.Itoa(v.Points), v.Comment)
	}
	field("popularity")
	ids := make([]string, 0, len(s.popularity))
	for id := range s.popularity {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		field(id, strconv.Itoa(s.popularity[id]))
	}
	return d.Sum64()
}
