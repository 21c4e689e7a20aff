package comments_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/songleague/internal/domain/comments"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	longSubmission = strings.Repeat("x", 60)
	longVote       = strings.Repeat("y", 55)
)

func newSnapshot() *dataset.Snapshot {
	snap, err := dataset.New("talkative", dataset.Data{
		Rounds:      []model.Round{{ID: "r1"}, {ID: "r2"}},
		Competitors: []model.Competitor{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}, {ID: "c", Name: "Cara"}},
		Submissions: []model.Submission{
			{RoundID: "r1", SubmitterID: "a", SongID: "s1", Comment: "short"},
			{RoundID: "r1", SubmitterID: "b", SongID: "s2"},
			{RoundID: "r1", SubmitterID: "c", SongID: "s3", Comment: "   "},
			{RoundID: "r2", SubmitterID: "a", SongID: "s4", Title: "Long Road", Comment: longSubmission},
		},
		Votes: []model.Vote{
			{RoundID: "r1", VoterID: "b", SongID: "s1", Points: 4, Comment: "love it"},
			{RoundID: "r1", VoterID: "c", SongID: "s1", Points: 2},
			{RoundID: "r1", VoterID: "a", SongID: "s2", Points: 3, Comment: "meh, fine"},
			{RoundID: "r1", VoterID: "a", SongID: "s3", Points: 0, Comment: "not for me at all"},
			{RoundID: "r2", VoterID: "b", SongID: "s4", Points: 5, Comment: longVote},
			{RoundID: "r2", VoterID: "c", SongID: "s4", Points: 1},
		},
	})
	if err != nil {
		panic(err)
	}
	return snap
}

func TestWordsmithAndCritic(t *testing.T) {
	Convey("Given a league with some talkative competitors", t, func() {
		snap := newSnapshot()

		Convey("Then a submitter's comments are measured over their entries", func() {
			e, err := comments.WordsmithScore(snap, "a")
			So(err, ShouldBeNil)
			So(e, ShouldResemble, comments.Engagement{AverageLength: 32.5, Rate: 100, Comments: 2, Total: 2})

			e, err = comments.WordsmithScore(snap, "a", comments.WithRound("r2"))
			So(err, ShouldBeNil)
			So(e.AverageLength, ShouldEqual, 60)
			So(e.Total, ShouldEqual, 1)
		})

		Convey("Then blank comments count as silence", func() {
			e, err := comments.WordsmithScore(snap, "c")
			So(err, ShouldBeNil)
			So(e.Rate, ShouldEqual, 0)
			So(stats.IsUndefined(e.AverageLength), ShouldBeTrue)
		})

		Convey("Then zero-point votes are left out of the critic score", func() {
			e, err := comments.CriticScore(snap, "a")
			So(err, ShouldBeNil)
			So(e, ShouldResemble, comments.Engagement{AverageLength: 9, Rate: 100, Comments: 1, Total: 1})

			e, err = comments.CriticScore(snap, "c")
			So(err, ShouldBeNil)
			So(e.Total, ShouldEqual, 2)
			So(e.Rate, ShouldEqual, 0)
		})

		Convey("Then unknown identifiers fail", func() {
			_, err := comments.WordsmithScore(snap, "nobody")
			So(errors.Is(err, dataset.ErrEntityNotFound), ShouldBeTrue)
			_, err = comments.CriticScore(snap, "a", comments.WithRound("r9"))
			So(errors.Is(err, dataset.ErrEntityNotFound), ShouldBeTrue)
		})
	})
}

func TestDiscussion(t *testing.T) {
	Convey("Given a song voters commented on", t, func() {
		snap := newSnapshot()

		Convey("Then every voter comment counts, zero-point ones included", func() {
			d, err := comments.DiscussionScore(snap, model.SongKey{RoundID: "r1", SongID: "s3"})
			So(err, ShouldBeNil)
			So(d.Comments, ShouldEqual, 1)
			So(d.AverageLength, ShouldEqual, 17)

			d, err = comments.DiscussionScore(snap, model.SongKey{RoundID: "r1", SongID: "s1"})
			So(err, ShouldBeNil)
			So(d.Comments, ShouldEqual, 1)
			So(d.AverageLength, ShouldEqual, 7)
		})

		Convey("Then an unknown song fails", func() {
			_, err := comments.DiscussionScore(snap, model.SongKey{RoundID: "r1", SongID: "s9"})
			So(errors.Is(err, dataset.ErrEntityNotFound), ShouldBeTrue)
		})
	})
}

func TestNotableComments(t *testing.T) {
	Convey("Given a league with a few long comments", t, func() {
		snap := newSnapshot()

		Convey("When using the default threshold", func() {
			rows := comments.NotableComments(snap)

			Convey("Then only long comments are kept, longest first", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0].Kind, ShouldEqual, comments.KindSubmission)
				So(rows[0].Person, ShouldEqual, "Alice")
				So(rows[0].Length, ShouldEqual, 60)
				So(rows[0].Points, ShouldBeNil)

				So(rows[1].Kind, ShouldEqual, comments.KindVote)
				So(rows[1].Title, ShouldEqual, "Long Road")
				So(*rows[1].Points, ShouldEqual, 5)
			})
		})

		Convey("When lowering the threshold and capping the count", func() {
			rows := comments.NotableComments(snap, comments.WithNotableMinLength(5), comments.WithNotableTopN(3))

			Convey("Then the cap applies after ordering", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0].Length, ShouldEqual, 60)
				So(rows[1].Length, ShouldEqual, 55)
				So(rows[2].Comment, ShouldEqual, "not for me at all")
			})
		})
	})
}

func TestEngagementByPoints(t *testing.T) {
	Convey("Given votes of every point value", t, func() {
		rows := comments.EngagementByPoints(newSnapshot())

		Convey("Then one bucket per positive point value is reported in order", func() {
			So(rows, ShouldHaveLength, 5)
			for i, r := range rows {
				So(r.Points, ShouldEqual, i+1)
				So(r.Count, ShouldEqual, 1)
			}
			So(rows[0].Rate, ShouldEqual, 0)
			So(stats.IsUndefined(rows[0].AverageLength), ShouldBeTrue)
			So(rows[3].Rate, ShouldEqual, 100)
			So(rows[3].AverageLength, ShouldEqual, 7)
		})
	})
}

func TestSubmissionLengthEffect(t *testing.T) {
	Convey("Given submissions with and without comments", t, func() {
		e := comments.SubmissionLengthEffect(newSnapshot())

		Convey("Then commented songs are compared with silent ones", func() {
			So(e.WithComment, ShouldEqual, 6)
			So(e.WithoutComment, ShouldEqual, 1.5)
			So(e.Difference, ShouldEqual, 4.5)
			So(e.PercentWithComment, ShouldEqual, 50)
			So(e.Correlation, ShouldBeGreaterThan, 0)
			So(e.Correlation, ShouldBeLessThanOrEqualTo, 1)
		})
	})

	Convey("Given a league where nobody explains their pick", t, func() {
		snap, err := dataset.New("quiet", dataset.Data{
			Rounds:      []model.Round{{ID: "r1"}},
			Competitors: []model.Competitor{{ID: "a"}, {ID: "b"}},
			Submissions: []model.Submission{
				{RoundID: "r1", SubmitterID: "a", SongID: "s1"},
				{RoundID: "r1", SubmitterID: "b", SongID: "s2"},
			},
			Votes: []model.Vote{{RoundID: "r1", VoterID: "a", SongID: "s2", Points: 3}},
		})
		So(err, ShouldBeNil)
		e := comments.SubmissionLengthEffect(snap)

		Convey("Then the undefined parts are reported as sentinels", func() {
			So(stats.IsUndefinedCorrelation(e.Correlation), ShouldBeTrue)
			So(stats.IsUndefined(e.WithComment), ShouldBeTrue)
			So(stats.IsUndefined(e.Difference), ShouldBeTrue)
			So(e.WithoutComment, ShouldEqual, 1.5)
			So(e.PercentWithComment, ShouldEqual, 0)
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given the full comment table", t, func() {
		table := comments.All(newSnapshot())

		Convey("Then people are ordered by average comment length", func() {
			So(table.Submitters, ShouldHaveLength, 3)
			So(table.Submitters[0].SubmitterID, ShouldEqual, "a")
			So(table.Submitters[0].Total, ShouldEqual, 2)

			var voters []string
			for _, v := range table.Voters {
				voters = append(voters, v.VoterID)
			}
			So(voters, ShouldResemble, []string{"b", "a", "c"})
		})

		Convey("Then every song and the league-wide tables are present", func() {
			So(table.Songs, ShouldHaveLength, 4)
			So(table.Notable, ShouldHaveLength, 2)
			So(table.ByPoints, ShouldHaveLength, 5)
			So(table.LengthEffect.PercentWithComment, ShouldEqual, 50)
		})
	})
}
