package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/songleague/internal/adapters/cache"
	"github.com/okian/songleague/internal/adapters/loader"
	service "github.com/okian/songleague/internal/app"
	"github.com/okian/songleague/internal/config"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/league"
	"github.com/okian/songleague/internal/domain/model"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeSource serves leagues from memory and counts loads. When gate is set,
// Load blocks until it is closed; waiting counts the blocked calls.
type fakeSource struct {
	mu          sync.Mutex
	data        map[string]dataset.Data
	loads       map[string]int
	invalidated []string
	gate        chan struct{}
	waiting     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		data: map[string]dataset.Data{
			"one": leagueOne(),
			"two": leagueTwo(),
			"three": {
				Rounds:      []model.Round{{ID: "t1"}},
				Competitors: []model.Competitor{{ID: "z", Name: "Zed"}},
				Submissions: []model.Submission{{RoundID: "t1", SubmitterID: "z", SongID: "s1"}},
			},
		},
		loads: map[string]int{},
	}
}

func (f *fakeSource) Leagues() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.data))
	for name := range f.data {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeSource) Load(ctx context.Context, name string) (*dataset.Snapshot, error) {
	if f.gate != nil {
		f.mu.Lock()
		f.waiting++
		f.mu.Unlock()
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", loader.ErrLeagueNotFound, name)
	}
	f.loads[name]++
	return dataset.New(name, d)
}

func (f *fakeSource) Invalidate(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, name)
}

// awaitWaiting reports whether n Load calls are blocked on the gate within
// a second.
func (f *fakeSource) awaitWaiting(n int) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		w := f.waiting
		f.mu.Unlock()
		if w >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func (f *fakeSource) loadCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[name]
}

// memCache is a cache.Store counting writes.
type memCache struct {
	mu      sync.Mutex
	reports map[string]*report.Report
	puts    int
}

func newMemCache() *memCache { return &memCache{reports: map[string]*report.Report{}} }

func (c *memCache) Get(_ context.Context, key cache.Key) (*report.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[key.String()]
	return r, ok, nil
}

func (c *memCache) Put(_ context.Context, key cache.Key, r *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[key.String()] = r
	c.puts++
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) putCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

func leagueOne() dataset.Data {
	return dataset.Data{
		Rounds: []model.Round{{ID: "r1", Name: "Openers"}},
		Competitors: []model.Competitor{
			{ID: "a", Name: "Alice"},
			{ID: "b", Name: "Bob"},
			{ID: "c", Name: "Cara"},
		},
		Submissions: []model.Submission{
			{RoundID: "r1", SubmitterID: "a", SongID: "s1", Title: "Shared"},
			{RoundID: "r1", SubmitterID: "b", SongID: "s2"},
			{RoundID: "r1", SubmitterID: "c", SongID: "s3"},
		},
		Votes: []model.Vote{
			{RoundID: "r1", VoterID: "a", SongID: "s2", Points: 3},
			{RoundID: "r1", VoterID: "a", SongID: "s3", Points: 1},
			{RoundID: "r1", VoterID: "b", SongID: "s1", Points: 2},
			{RoundID: "r1", VoterID: "b", SongID: "s3", Points: 2},
			{RoundID: "r1", VoterID: "c", SongID: "s1", Points: 1},
			{RoundID: "r1", VoterID: "c", SongID: "s2", Points: 3},
		},
	}
}

func leagueTwo() dataset.Data {
	return dataset.Data{
		Rounds: []model.Round{{ID: "q1"}},
		Competitors: []model.Competitor{
			{ID: "x", Name: "alice"},
			{ID: "y", Name: "Dan"},
		},
		Submissions: []model.Submission{
			{RoundID: "q1", SubmitterID: "x", SongID: "s1"},
			{RoundID: "q1", SubmitterID: "y", SongID: "s9"},
		},
		Votes: []model.Vote{
			{RoundID: "q1", VoterID: "x", SongID: "s9", Points: 4},
			{RoundID: "q1", VoterID: "y", SongID: "s1", Points: 2},
		},
	}
}

func fixedClock() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(newFakeSource())

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Settings(), ShouldResemble, service.DefaultSettings())

			stats := svc.Stats(context.Background())
			So(stats["started"], ShouldEqual, false)
			So(stats["engineVersion"], ShouldEqual, service.EngineVersion)
			So(stats["leaguesStored"], ShouldEqual, 0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(newFakeSource(),
			service.WithWorkerCount(3),
			service.WithQueueSize(16),
			service.WithParallelism(2),
		)

		Convey("Then the options are reported in its stats", func() {
			stats := svc.Stats(context.Background())
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 16)
			So(stats["parallelism"], ShouldEqual, 2)
		})
	})

	Convey("Given a service built from configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.ExcludeSelfVotes = true
		cfg.PageRankDamping = 0.9
		cfg.MaxLeagues = 1
		svc := service.New(newFakeSource(), service.FromConfig(cfg)...)

		Convey("Then the settings follow the configuration", func() {
			So(svc.Settings(), ShouldResemble, service.SettingsFromConfig(cfg))
			So(svc.Settings().ExcludeSelfVotes, ShouldBeTrue)
			So(svc.Stats(context.Background())["workerCount"], ShouldEqual, 2)
		})
	})
}

func TestService_Compute(t *testing.T) {
	Convey("Given a loaded league", t, func() {
		ctx := context.Background()
		snap, err := dataset.New("one", leagueOne())
		So(err, ShouldBeNil)
		svc := service.New(newFakeSource(), service.WithClock(fixedClock), service.WithParallelism(1))

		Convey("When computing its report", func() {
			r, err := svc.Compute(ctx, snap)
			So(err, ShouldBeNil)

			Convey("Then the header identifies the data and the engine", func() {
				So(r.League, ShouldEqual, "one")
				So(r.Fingerprint, ShouldEqual, service.Fingerprint(snap))
				So(r.EngineVersion, ShouldEqual, service.EngineVersion)
				So(r.GeneratedAt, ShouldEqual, fixedClock())
				So(r.Settings, ShouldResemble, service.DefaultSettings())
			})

			Convey("Then every table is filled", func() {
				So(r.Songs, ShouldHaveLength, 3)
				So(r.Voters, ShouldHaveLength, 3)
				So(r.Submitters, ShouldHaveLength, 3)
				So(r.Similarity.Voters, ShouldHaveLength, 3)
				So(r.Network.Nodes, ShouldHaveLength, 3)
				So(r.Trends.Competitiveness, ShouldHaveLength, 1)
				So(r.Trends.Players, ShouldHaveLength, 3)
				So(r.Comments.Submitters, ShouldHaveLength, 3)
				So(r.Comments.Songs, ShouldHaveLength, 3)
			})

			Convey("Then influence is a distribution", func() {
				So(r.Network.Iterations, ShouldBeGreaterThan, 0)
				var sum float64
				for _, inf := range r.Network.Influence {
					sum += inf.Score
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Compute(cctx, snap)

			Convey("Then no report is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a service with a cache", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		c := newMemCache()
		svc := service.New(src, service.WithCache(c))

		Convey("When a league is analysed twice", func() {
			first, err := svc.Analyze(ctx, "one", false)
			So(err, ShouldBeNil)
			second, err := svc.Analyze(ctx, "one", false)
			So(err, ShouldBeNil)

			Convey("Then the second report comes from the cache", func() {
				So(src.loadCount("one"), ShouldEqual, 2)
				So(c.putCount(), ShouldEqual, 1)
				So(second, ShouldEqual, first)
			})
		})

		Convey("When forcing a recomputation", func() {
			_, err := svc.Analyze(ctx, "one", false)
			So(err, ShouldBeNil)
			_, err = svc.Analyze(ctx, "one", true)
			So(err, ShouldBeNil)

			Convey("Then the cache is bypassed and rewritten", func() {
				So(c.putCount(), ShouldEqual, 2)
			})
		})

		Convey("When a forced analysis starts while a plain one is loading", func() {
			src.gate = make(chan struct{})
			errs := make(chan error, 2)
			go func() {
				_, err := svc.Analyze(ctx, "one", false)
				errs <- err
			}()
			So(src.awaitWaiting(1), ShouldBeTrue)
			go func() {
				_, err := svc.Analyze(ctx, "one", true)
				errs <- err
			}()
			forcedLoading := src.awaitWaiting(2)
			close(src.gate)
			So(<-errs, ShouldBeNil)
			So(<-errs, ShouldBeNil)

			Convey("Then the forced call loads on its own", func() {
				So(forcedLoading, ShouldBeTrue)
				So(src.loadCount("one"), ShouldEqual, 2)
			})
		})

		Convey("When the settings change", func() {
			_, err := svc.Analyze(ctx, "one", false)
			So(err, ShouldBeNil)

			st := service.DefaultSettings()
			st.ExcludeSelfVotes = true
			other := service.New(src, service.WithCache(c), service.WithSettings(st))
			r, err := other.Analyze(ctx, "one", false)
			So(err, ShouldBeNil)

			Convey("Then the cached report is not reused", func() {
				So(c.putCount(), ShouldEqual, 2)
				So(r.Settings.ExcludeSelfVotes, ShouldBeTrue)
			})
		})

		Convey("When the league does not exist", func() {
			_, err := svc.Analyze(ctx, "missing", false)

			Convey("Then the loader error is returned", func() {
				So(errors.Is(err, loader.ErrLeagueNotFound), ShouldBeTrue)
			})
		})

		Convey("When the name is not a plain directory name", func() {
			for _, name := range []string{"", ".", "..", "../etc", "a/b", `a\b`} {
				_, err := svc.Analyze(ctx, name, false)
				So(errors.Is(err, service.ErrInvalidLeague), ShouldBeTrue)
			}
		})
	})
}

func TestService_Report(t *testing.T) {
	Convey("Given a service restricted to one league", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		svc := service.New(src, service.WithLeagues("one"))

		Convey("When asking for a report that was never computed", func() {
			r, err := svc.Report(ctx, "one")
			So(err, ShouldBeNil)

			Convey("Then it is analysed on demand and stored", func() {
				So(r.League, ShouldEqual, "one")
				So(svc.Stats(ctx)["leaguesStored"], ShouldEqual, 1)
			})

			Convey("And later requests are served from the store", func() {
				_, err := svc.Report(ctx, "one")
				So(err, ShouldBeNil)
				So(src.loadCount("one"), ShouldEqual, 1)
			})
		})

		Convey("When asking for a league outside the configured set", func() {
			_, err := svc.Report(ctx, "two")

			Convey("Then it is unknown", func() {
				So(errors.Is(err, service.ErrUnknownLeague), ShouldBeTrue)
				So(src.loadCount("two"), ShouldEqual, 0)
			})
		})

		Convey("When listing leagues", func() {
			before, err := svc.Leagues(ctx)
			So(err, ShouldBeNil)
			_, err = svc.Report(ctx, "one")
			So(err, ShouldBeNil)
			after, err := svc.Leagues(ctx)
			So(err, ShouldBeNil)

			Convey("Then only allowed leagues appear, with summaries once loaded", func() {
				So(before, ShouldHaveLength, 1)
				So(before[0].Loaded, ShouldBeFalse)
				So(before[0].Summary, ShouldBeNil)

				So(after, ShouldHaveLength, 1)
				So(after[0].Loaded, ShouldBeTrue)
				So(after[0].Summary.Songs, ShouldEqual, 3)
			})
		})
	})
}

func TestService_Preprocess(t *testing.T) {
	Convey("Given a service with a cache", t, func() {
		ctx := context.Background()
		c := newMemCache()
		svc := service.New(newFakeSource(), service.WithCache(c), service.WithWorkerCount(2))

		Convey("When preprocessing a list with a repeated league", func() {
			out, err := svc.Preprocess(ctx, []string{"two", "one", "two"}, false)
			So(err, ShouldBeNil)

			Convey("Then each league is processed once in order of appearance", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].League, ShouldEqual, "two")
				So(out[1].League, ShouldEqual, "one")
				for _, o := range out {
					So(o.Err, ShouldBeNil)
					So(o.Cached, ShouldBeFalse)
					So(o.Fingerprint, ShouldHaveLength, 16)
				}
			})

			Convey("And a second run is served from the cache", func() {
				again, err := svc.Preprocess(ctx, []string{"one"}, false)
				So(err, ShouldBeNil)
				So(again[0].Cached, ShouldBeTrue)
			})
		})

		Convey("When preprocessing every league", func() {
			out, err := svc.Preprocess(ctx, nil, false)
			So(err, ShouldBeNil)

			Convey("Then all available leagues are stored", func() {
				So(out, ShouldHaveLength, 3)
				So(svc.Stats(ctx)["leaguesStored"], ShouldEqual, 3)
			})
		})

		Convey("When one league fails", func() {
			out, err := svc.Preprocess(ctx, []string{"one", "missing"}, false)
			So(err, ShouldBeNil)

			Convey("Then only that outcome carries the error", func() {
				So(out[0].Err, ShouldBeNil)
				So(errors.Is(out[1].Err, loader.ErrLeagueNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a service that was not started", t, func() {
		svc := service.New(newFakeSource())

		Convey("When submitting a league", func() {
			_, err := svc.Submit(context.Background(), "one", false)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a started service whose loads are held back", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		src.gate = make(chan struct{})
		svc := service.New(src, service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the same league is submitted twice", func() {
			first, err := svc.Submit(ctx, "one", false)
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, "one", false)
			So(err, ShouldBeNil)
			close(src.gate)

			Convey("Then only the first is queued and it is processed", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(eventually(func() bool {
					return svc.Stats(ctx)["leaguesStored"] == 1 && svc.Stats(ctx)["inFlight"] == 0
				}), ShouldBeTrue)
			})
		})
	})
}

func TestService_Watch(t *testing.T) {
	Convey("Given a started service watching for changes", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		src := newFakeSource()
		svc := service.New(src, service.WithLeagues("one", "two"))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		changes := make(chan string)
		done := make(chan struct{})
		go func() {
			svc.Watch(ctx, changes)
			close(done)
		}()

		Convey("When a league changes on disk", func() {
			changes <- "one"
			changes <- "three"
			close(changes)
			<-done

			Convey("Then it is invalidated and recomputed, ignoring other leagues", func() {
				So(eventually(func() bool { return src.loadCount("one") == 1 }), ShouldBeTrue)
				src.mu.Lock()
				So(src.invalidated, ShouldResemble, []string{"one"})
				src.mu.Unlock()
			})
		})
	})
}

func TestService_Compare(t *testing.T) {
	Convey("Given a service with three leagues", t, func() {
		ctx := context.Background()
		svc := service.New(newFakeSource())

		Convey("When comparing two leagues", func() {
			c, err := svc.Compare(ctx, []string{"one", "two"})
			So(err, ShouldBeNil)

			Convey("Then both are summarised and submitters are aligned", func() {
				So(c.Leagues, ShouldResemble, []string{"one", "two"})
				So(c.Characteristics, ShouldHaveLength, 2)
				So(c.Submitters, ShouldNotBeEmpty)
				So(c.SongOverlap, ShouldHaveLength, 1)
				So(c.SongOverlap[0].SongID, ShouldEqual, "s1")
			})
		})

		Convey("When comparing three leagues", func() {
			c, err := svc.Compare(ctx, []string{"one", "two", "three"})
			So(err, ShouldBeNil)

			Convey("Then submitters are not compared", func() {
				So(c.Characteristics, ShouldHaveLength, 3)
				So(c.Submitters, ShouldBeNil)
				So(c.SongOverlap[0].Count, ShouldEqual, 3)
			})
		})

		Convey("When given too few or repeated leagues", func() {
			_, err := svc.Compare(ctx, []string{"one"})
			So(errors.Is(err, league.ErrEventCount), ShouldBeTrue)

			_, err = svc.Compare(ctx, []string{"one", "one"})
			So(errors.Is(err, service.ErrInvalidLeague), ShouldBeTrue)
		})

		Convey("When a league is missing", func() {
			_, err := svc.Compare(ctx, []string{"one", "missing"})
			So(errors.Is(err, loader.ErrLeagueNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(newFakeSource())
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping the service twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.Stats(context.Background())["started"], ShouldEqual, false)
			})
		})
	})
}
