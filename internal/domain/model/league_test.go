package model_test

import (
	"testing"

	model "github.com/okian/songleague/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSongKeys(t *testing.T) {
	convey.Convey("Given a submission and a vote for the same song", t, func() {
		sub := model.Submission{RoundID: "r1", SubmitterID: "a", SongID: "spotify:track:1"}
		vote := model.Vote{RoundID: "r1", VoterID: "b", SongID: "spotify:track:1", Points: 3}

		convey.Convey("Then both resolve to the same key", func() {
			convey.So(sub.Key(), convey.ShouldResemble, vote.Key())
			convey.So(sub.Key().String(), convey.ShouldEqual, "r1/spotify:track:1")
		})

		convey.Convey("Then the same track in another round is a different song", func() {
			other := model.Vote{RoundID: "r2", SongID: "spotify:track:1"}
			convey.So(other.Key(), convey.ShouldNotResemble, sub.Key())
		})
	})
}

func TestPopularity(t *testing.T) {
	convey.Convey("Given a popularity map", t, func() {
		pop := model.Popularity{"known": 40, "zero": 0}

		convey.Convey("Then known values are reported as known", func() {
			v, ok := pop.Lookup("zero")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 0)
		})

		convey.Convey("Then unknown values are distinguishable from zero", func() {
			_, ok := pop.Lookup("missing")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then range checks are inclusive", func() {
			convey.So(model.ValidPopularity(0), convey.ShouldBeTrue)
			convey.So(model.ValidPopularity(100), convey.ShouldBeTrue)
			convey.So(model.ValidPopularity(101), convey.ShouldBeFalse)
			convey.So(model.ValidPopularity(-1), convey.ShouldBeFalse)
		})
	})
}
