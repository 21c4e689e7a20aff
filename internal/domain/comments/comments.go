// Package comments measures how much competitors talk: comment length and
// frequency for submitters and voters, which songs got people talking, the
// longest quotes of the league, and whether explaining a pick pays off.
//
// Lengths count characters of the trimmed comment. A blank comment is no
// comment.
package comments

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
)

// Kinds of notable comments.
const (
	KindSubmission = "submission"
	KindVote       = "vote"
)

// minCorrelationSample is the fewest submissions LengthEffect correlates.
const minCorrelationSample = 3

// Engagement describes how often and how much someone commented. Rate is a
// percentage in [0,100].
type Engagement struct {
	AverageLength float64 `json:"average_length"`
	Rate          float64 `json:"comment_rate"`
	Comments      int     `json:"comments"`
	Total         int     `json:"total"`
}

// Submitter is one row of the wordsmith table.
type Submitter struct {
	SubmitterID string `json:"submitter_id"`
	Submitter   string `json:"submitter"`
	Engagement
}

// Voter is one row of the critic table.
type Voter struct {
	VoterID string `json:"voter_id"`
	Voter   string `json:"voter"`
	Engagement
}

// Discussion is how much talk one song generated among its voters.
type Discussion struct {
	RoundID       string  `json:"round_id"`
	SongID        string  `json:"song_id"`
	Title         string  `json:"title,omitempty"`
	Artist        string  `json:"artist,omitempty"`
	Comments      int     `json:"comments"`
	AverageLength float64 `json:"average_length"`
}

// Notable is a long comment worth quoting.
type Notable struct {
	Kind     string `json:"kind"`
	PersonID string `json:"person_id"`
	Person   string `json:"person"`
	RoundID  string `json:"round_id"`
	SongID   string `json:"song_id"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Comment  string `json:"comment"`
	Length   int    `json:"length"`
	Points   *int   `json:"points,omitempty"`
}

// PointsBucket is comment engagement among votes of one point value.
type PointsBucket struct {
	Points        int     `json:"points"`
	AverageLength float64 `json:"average_length"`
	Rate          float64 `json:"comment_rate"`
	Count         int     `json:"count"`
}

// LengthEffect relates submission comment length to the points a song
// earned.
type LengthEffect struct {
	Correlation        float64 `json:"correlation"`
	WithComment        float64 `json:"average_points_with_comment"`
	WithoutComment     float64 `json:"average_points_without_comment"`
	Difference         float64 `json:"difference"`
	PercentWithComment float64 `json:"percent_with_comment"`
}

// Table is every comment metric of a league.
type Table struct {
	Submitters   []Submitter    `json:"submitters"`
	Voters       []Voter        `json:"voters"`
	Songs        []Discussion   `json:"songs"`
	Notable      []Notable      `json:"notable"`
	ByPoints     []PointsBucket `json:"by_points"`
	LengthEffect LengthEffect   `json:"length_effect"`
}

func length(comment string) int {
	return utf8.RuneCountInString(strings.TrimSpace(comment))
}

// engagement summarises texts, one per submission or vote. Both ratios are
// stats.Undefined without texts; the average length is also undefined when
// nobody commented.
func engagement(texts []string) Engagement {
	e := Engagement{Total: len(texts), AverageLength: stats.Undefined, Rate: stats.Undefined}
	if len(texts) == 0 {
		return e
	}
	var lengths []int
	for _, t := range texts {
		if n := length(t); n > 0 {
			lengths = append(lengths, n)
		}
	}
	e.Comments = len(lengths)
	e.Rate = 100 * float64(e.Comments) / float64(e.Total)
	if e.Comments > 0 {
		e.AverageLength = stats.Mean(stats.Floats(lengths))
	}
	return e
}

// WordsmithScore returns the comment engagement of a submitter's entries.
func WordsmithScore(snap *dataset.Snapshot, submitterID string, opts ...Option) (Engagement, error) {
	if !snap.HasCompetitor(submitterID) {
		return Engagement{}, fmt.Errorf("%w: submitter %q", dataset.ErrEntityNotFound, submitterID)
	}
	o := newOptions(opts)
	if err := checkRound(snap, o); err != nil {
		return Engagement{}, err
	}
	return wordsmith(snap, submitterID, o), nil
}

func wordsmith(snap *dataset.Snapshot, submitterID string, o options) Engagement {
	var texts []string
	for _, s := range snap.SubmissionsBy(submitterID) {
		if o.inScope(s.RoundID) {
			texts = append(texts, s.Comment)
		}
	}
	return engagement(texts)
}

// CriticScore returns the comment engagement of a voter. Only votes that
// gave points count.
func CriticScore(snap *dataset.Snapshot, voterID string, opts ...Option) (Engagement, error) {
	if !snap.HasCompetitor(voterID) {
		return Engagement{}, fmt.Errorf("%w: voter %q", dataset.ErrEntityNotFound, voterID)
	}
	o := newOptions(opts)
	if err := checkRound(snap, o); err != nil {
		return Engagement{}, err
	}
	return critic(snap, voterID, o), nil
}

func critic(snap *dataset.Snapshot, voterID string, o options) Engagement {
	var texts []string
	for _, v := range snap.VotesBy(voterID) {
		if v.Points > 0 && o.inScope(v.RoundID) {
			texts = append(texts, v.Comment)
		}
	}
	return engagement(texts)
}

func checkRound(snap *dataset.Snapshot, o options) error {
	if o.roundID == "" {
		return nil
	}
	_, _, err := snap.Round(o.roundID)
	return err
}

// DiscussionScore counts the comments voters left on a song and their
// average length, which is stats.Undefined without comments.
func DiscussionScore(snap *dataset.Snapshot, key model.SongKey) (Discussion, error) {
	sub, err := snap.Submission(key)
	if err != nil {
		return Discussion{}, err
	}
	return discussion(snap, sub), nil
}

func discussion(snap *dataset.Snapshot, sub model.Submission) Discussion {
	var lengths []int
	for _, v := range snap.VotesFor(sub.Key()) {
		if n := length(v.Comment); n > 0 {
			lengths = append(lengths, n)
		}
	}
	d := Discussion{
		RoundID:       sub.RoundID,
		SongID:        sub.SongID,
		Title:         sub.Title,
		Artist:        sub.Artist,
		Comments:      len(lengths),
		AverageLength: stats.Undefined,
	}
	if len(lengths) > 0 {
		d.AverageLength = stats.Mean(stats.Floats(lengths))
	}
	return d
}

// NotableComments returns the longest submission and vote comments, longest
// first. Ties keep submissions before votes, each in input order.
func NotableComments(snap *dataset.Snapshot, opts ...Option) []Notable {
	o := newOptions(opts)
	var out []Notable
	for _, s := range snap.Submissions() {
		n := length(s.Comment)
		if n < o.minLength {
			continue
		}
		out = append(out, Notable{
			Kind:     KindSubmission,
			PersonID: s.SubmitterID,
			Person:   snap.DisplayName(s.SubmitterID),
			RoundID:  s.RoundID,
			SongID:   s.SongID,
			Title:    s.Title,
			Artist:   s.Artist,
			Comment:  strings.TrimSpace(s.Comment),
			Length:   n,
		})
	}
	for _, v := range snap.Votes() {
		n := length(v.Comment)
		if n < o.minLength {
			continue
		}
		points := v.Points
		row := Notable{
			Kind:     KindVote,
			PersonID: v.VoterID,
			Person:   snap.DisplayName(v.VoterID),
			RoundID:  v.RoundID,
			SongID:   v.SongID,
			Comment:  strings.TrimSpace(v.Comment),
			Length:   n,
			Points:   &points,
		}
		if sub, err := snap.Submission(v.Key()); err == nil {
			row.Title, row.Artist = sub.Title, sub.Artist
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Length > out[j].Length })
	if len(out) > o.topN {
		out = out[:o.topN]
	}
	return out
}

// EngagementByPoints groups the votes that gave points by point value,
// ascending, and reports comment engagement per group.
func EngagementByPoints(snap *dataset.Snapshot) []PointsBucket {
	groups := make(map[int][]string)
	for _, v := range snap.Votes() {
		if v.Points > 0 {
			groups[v.Points] = append(groups[v.Points], v.Comment)
		}
	}
	out := make([]PointsBucket, 0, len(groups))
	for points, texts := range groups {
		e := engagement(texts)
		out = append(out, PointsBucket{
			Points:        points,
			AverageLength: e.AverageLength,
			Rate:          e.Rate,
			Count:         e.Total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points < out[j].Points })
	return out
}

// SubmissionLengthEffect correlates each submission's comment length with
// the points credited to it, and compares average points with and without
// a comment. Correlation is stats.UndefinedCorrelation for fewer than three
// submissions or a constant series; a group average is stats.Undefined when
// the group is empty, and so is the difference.
func SubmissionLengthEffect(snap *dataset.Snapshot) LengthEffect {
	subs := snap.Submissions()
	e := LengthEffect{
		Correlation:    stats.UndefinedCorrelation,
		WithComment:    stats.Undefined,
		WithoutComment: stats.Undefined,
		Difference:     stats.Undefined,
	}
	if len(subs) == 0 {
		return e
	}

	lengths := make([]int, len(subs))
	points := make([]int, len(subs))
	var with, without []int
	for i, s := range subs {
		lengths[i] = length(s.Comment)
		points[i] = snap.Credited(s)
		if lengths[i] > 0 {
			with = append(with, points[i])
		} else {
			without = append(without, points[i])
		}
	}

	if len(subs) >= minCorrelationSample {
		if r, ok := stats.Pearson(stats.Floats(lengths), stats.Floats(points)); ok {
			e.Correlation = r
		}
	}
	if len(with) > 0 {
		e.WithComment = stats.Mean(stats.Floats(with))
	}
	if len(without) > 0 {
		e.WithoutComment = stats.Mean(stats.Floats(without))
	}
	if len(with) > 0 && len(without) > 0 {
		e.Difference = e.WithComment - e.WithoutComment
	}
	e.PercentWithComment = 100 * float64(len(with)) / float64(len(subs))
	return e
}

// All builds the comment table. Submitters and voters are ordered by
// average comment length, longest first, ties in participant order; songs
// by comment count.
func All(snap *dataset.Snapshot, opts ...Option) Table {
	o := newOptions(opts)
	o.roundID = ""

	t := Table{
		Submitters:   make([]Submitter, 0, len(snap.Submitters())),
		Voters:       make([]Voter, 0, len(snap.Voters())),
		Notable:      NotableComments(snap, opts...),
		ByPoints:     EngagementByPoints(snap),
		LengthEffect: SubmissionLengthEffect(snap),
	}
	for _, id := range snap.Submitters() {
		t.Submitters = append(t.Submitters, Submitter{
			SubmitterID: id,
			Submitter:   snap.DisplayName(id),
			Engagement:  wordsmith(snap, id, o),
		})
	}
	for _, id := range snap.Voters() {
		t.Voters = append(t.Voters, Voter{
			VoterID:    id,
			Voter:      snap.DisplayName(id),
			Engagement: critic(snap, id, o),
		})
	}
	seen := make(map[model.SongKey]struct{})
	for _, s := range snap.Submissions() {
		if _, dup := seen[s.Key()]; dup {
			continue
		}
		seen[s.Key()] = struct{}{}
		t.Songs = append(t.Songs, discussion(snap, s))
	}

	sort.SliceStable(t.Submitters, func(i, j int) bool {
		return t.Submitters[i].AverageLength > t.Submitters[j].AverageLength
	})
	sort.SliceStable(t.Voters, func(i, j int) bool {
		return t.Voters[i].AverageLength > t.Voters[j].AverageLength
	})
	sort.SliceStable(t.Songs, func(i, j int) bool { return t.Songs[i].Comments > t.Songs[j].Comments })
	return t
}
