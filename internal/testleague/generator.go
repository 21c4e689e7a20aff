package testleague

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/model"
)

// archetype is a submitter's taste level. Song quality is drawn uniformly
// from [min, min+span).
type archetype struct {
	name string
	min  float64
	span float64
}

var archetypes = []archetype{
	{"average", 3.0, 4.0},
	{"high", 7.0, 2.0},
	{"low", 0.1, 2.9},
	{"elite", 9.0, 1.0},
	{"very-low", 0.1, 0.9},
	{"mid-high", 6.0, 2.0},
	{"mid-low", 2.0, 2.0},
	{"wide", 0.1, 9.9},
}

var (
	firstNames = []string{"Ava", "Ben", "Cleo", "Dev", "Eli", "Fay", "Gus", "Hana", "Ivo", "Jun", "Kai", "Lena", "Milo", "Nia", "Oren", "Pia"}
	themes     = []string{"Openers", "Guilty Pleasures", "Covers", "One Word Titles", "Road Trip", "Debut Singles", "Rainy Day", "Instrumentals", "Duets", "Closers"}
	artists    = []string{"The Lanterns", "Mira Vale", "Northbound", "Static Bloom", "Juno Park", "Glass Harbor", "Los Relojes", "Quiet Engines"}
)

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// generator carries the random source and the ID namespace of one league.
type generator struct {
	cfg Config
	rng *rand.Rand
	ns  uuid.UUID
}

// Generate builds a league from cfg. The same config always yields the
// same data, IDs included.
func Generate(cfg Config) (dataset.Data, error) {
	if err := cfg.Validate(); err != nil {
		return dataset.Data{}, err
	}
	g := &generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		ns:  uuid.NewSHA1(uuid.NameSpaceURL, []byte("songleague:"+cfg.Name)),
	}

	d := dataset.Data{Popularity: model.Popularity{}}
	tastes := make([]archetype, cfg.Competitors)
	for i := range cfg.Competitors {
		d.Competitors = append(d.Competitors, model.Competitor{
			ID:   g.id("competitor", i),
			Name: competitorName(i),
		})
		tastes[i] = archetypes[g.rng.IntN(len(archetypes))]
	}

	for r := range cfg.Rounds {
		round := model.Round{ID: g.id("round", r), Name: themes[r%len(themes)]}
		d.Rounds = append(d.Rounds, round)

		quality := make([]float64, cfg.Competitors)
		subs := make([]model.Submission, cfg.Competitors)
		for i, c := range d.Competitors {
			subs[i] = model.Submission{
				RoundID:     round.ID,
				SubmitterID: c.ID,
				SongID:      g.trackURI(),
				Title:       fmt.Sprintf("Track %d-%d", r+1, i+1),
				Artist:      artists[g.rng.IntN(len(artists))],
			}
			quality[i] = tastes[i].min + g.rng.Float64()*tastes[i].span
			if g.rng.Float64() >= cfg.UnknownShare {
				d.Popularity[subs[i].SongID] = g.rng.IntN(model.MaxPopularity + 1)
			}
		}
		d.Submissions = append(d.Submissions, subs...)

		for v, voter := range d.Competitors {
			points := g.ballot(v, quality)
			for i, p := range points {
				if p == 0 {
					continue
				}
				d.Votes = append(d.Votes, model.Vote{
					RoundID: round.ID,
					VoterID: voter.ID,
					SongID:  subs[i].SongID,
					Points:  p,
				})
			}
		}
	}
	return d, nil
}

// ballot spends the round budget one point at a time, picking songs in
// proportion to their quality. Voters never score their own song.
func (g *generator) ballot(self int, quality []float64) []int {
	points := make([]int, len(quality))
	for range g.cfg.PointsPerRound {
		var total float64
		for i, q := range quality {
			if i != self && points[i] < g.cfg.MaxPointsPerSong {
				total += q
			}
		}
		pick := g.rng.Float64() * total
		chosen := -1
		for i, q := range quality {
			if i == self || points[i] >= g.cfg.MaxPointsPerSong {
				continue
			}
			chosen = i
			if pick < q {
				break
			}
			pick -= q
		}
		points[chosen]++
	}
	return points
}

func (g *generator) id(kind string, i int) string {
	return uuid.NewSHA1(g.ns, []byte(fmt.Sprintf("%s-%d", kind, i))).String()
}

func (g *generator) trackURI() string {
	var b strings.Builder
	b.WriteString("spotify:track:")
	for range 22 {
		b.WriteByte(base62[g.rng.IntN(len(base62))])
	}
	return b.String()
}

func competitorName(i int) string {
	name := firstNames[i%len(firstNames)]
	if n := i / len(firstNames); n > 0 {
		name = fmt.Sprintf("%s %d", name, n+1)
	}
	return name
}
