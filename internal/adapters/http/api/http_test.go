package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/songleague/internal/adapters/http/api"
	"github.com/okian/songleague/internal/adapters/loader"
	"github.com/okian/songleague/internal/adapters/mq/queue"
	service "github.com/okian/songleague/internal/app"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/league"
	"github.com/okian/songleague/internal/domain/report"
	"github.com/okian/songleague/internal/domain/songs"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies serves one league named "spring".
type mockDependencies struct {
	reportErr  error
	submitErr  error
	queued     bool
	submitted  []string
	forced     []bool
	compared   [][]string
	compareErr error
}

func (m *mockDependencies) Stats(context.Context) map[string]any {
	return map[string]any{"started": true, "leaguesStored": 1}
}

func (m *mockDependencies) Leagues(context.Context) ([]service.LeagueStatus, error) {
	return []service.LeagueStatus{{Name: "spring", Loaded: true}, {Name: "winter"}}, nil
}

func (m *mockDependencies) Report(_ context.Context, name string) (*report.Report, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	if name != "spring" {
		return nil, fmt.Errorf("%w: %s", loader.ErrLeagueNotFound, name)
	}
	return &report.Report{
		League:      "spring",
		Fingerprint: "00000000000000ff",
		Songs:       []songs.Metrics{{RoundID: "r1", SongID: "s1", TotalPoints: 7}},
		Network:     report.Network{Nodes: []report.Node{{ID: "a", Name: "Alice"}}},
	}, nil
}

func (m *mockDependencies) Submit(_ context.Context, name string, force bool) (bool, error) {
	if m.submitErr != nil {
		return false, m.submitErr
	}
	m.submitted = append(m.submitted, name)
	m.forced = append(m.forced, force)
	return m.queued, nil
}

func (m *mockDependencies) Compare(_ context.Context, names []string) (*service.Comparison, error) {
	m.compared = append(m.compared, names)
	if m.compareErr != nil {
		return nil, m.compareErr
	}
	return &service.Comparison{Leagues: names}, nil
}

func serve(deps *mockDependencies, method, target string) *httptest.ResponseRecorder {
	router := api.NewServer(deps).Router(context.Background())
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(w.Body).Decode(v)
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{queued: true}

		Convey("When requesting /healthz", func() {
			w := serve(deps, http.MethodGet, "/healthz")

			Convey("Then Prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "songleague_engine_")
			})
		})

		Convey("When requesting /stats", func() {
			w := serve(deps, http.MethodGet, "/stats")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then service statistics are returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(body["started"], ShouldEqual, true)
			})
		})

		Convey("When listing leagues", func() {
			w := serve(deps, http.MethodGet, "/leagues")
			var body []service.LeagueStatus
			So(decode(w, &body), ShouldBeNil)

			Convey("Then every league is listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldHaveLength, 2)
				So(body[0].Name, ShouldEqual, "spring")
			})
		})

		Convey("When an unknown path is requested", func() {
			w := serve(deps, http.MethodGet, "/unknown")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a route is called with the wrong method", func() {
			w := serve(deps, http.MethodPost, "/leagues")

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestLeaguesHandler(t *testing.T) {
	Convey("Given a server with one league", t, func() {
		deps := &mockDependencies{queued: true}

		Convey("When requesting the full report", func() {
			w := serve(deps, http.MethodGet, "/leagues/spring")
			var body report.Report
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the report is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.League, ShouldEqual, "spring")
				So(body.Songs, ShouldHaveLength, 1)
			})
		})

		Convey("When requesting a single table", func() {
			w := serve(deps, http.MethodGet, "/leagues/spring/songs")
			var body []songs.Metrics
			So(decode(w, &body), ShouldBeNil)

			Convey("Then only that table is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldHaveLength, 1)
				So(body[0].TotalPoints, ShouldEqual, 7)
			})
		})

		Convey("When requesting every known table", func() {
			for _, table := range []string{"songs", "voters", "similarity", "submitters", "relationships", "network", "trends", "comments"} {
				w := serve(deps, http.MethodGet, "/leagues/spring/"+table)
				So(w.Code, ShouldEqual, http.StatusOK)
			}
		})

		Convey("When requesting an unknown table", func() {
			w := serve(deps, http.MethodGet, "/leagues/spring/lyrics")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When requesting an unknown league", func() {
			w := serve(deps, http.MethodGet, "/leagues/autumn")
			var body map[string]string
			So(decode(w, &body), ShouldBeNil)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When refreshing a league", func() {
			w := serve(deps, http.MethodPost, "/leagues/spring/refresh?force=true")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then it is queued with the force flag", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(body["duplicate"], ShouldEqual, false)
				So(deps.submitted, ShouldResemble, []string{"spring"})
				So(deps.forced, ShouldResemble, []bool{true})
			})
		})

		Convey("When refreshing a league that is already queued", func() {
			deps.queued = false
			w := serve(deps, http.MethodPost, "/leagues/spring/refresh")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the request is acknowledged as a duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(body["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the force flag is not a boolean", func() {
			w := serve(deps, http.MethodPost, "/leagues/spring/refresh?force=maybe")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.submitted, ShouldBeEmpty)
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown league", fmt.Errorf("wrap: %w", service.ErrUnknownLeague), http.StatusNotFound},
		{"missing entity", dataset.ErrEntityNotFound, http.StatusNotFound},
		{"invalid name", service.ErrInvalidLeague, http.StatusBadRequest},
		{"malformed data", fmt.Errorf("league x: %w", dataset.ErrMalformed), http.StatusUnprocessableEntity},
		{"missing column", loader.ErrMissingColumn, http.StatusUnprocessableEntity},
		{"full queue", queue.ErrFull, http.StatusTooManyRequests},
		{"not started", service.ErrNotStarted, http.StatusServiceUnavailable},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}

	Convey("Given engine errors", t, func() {
		for _, c := range cases {
			Convey("When the engine fails with "+c.name, func() {
				deps := &mockDependencies{reportErr: c.err}
				w := serve(deps, http.MethodGet, "/leagues/spring")
				So(w.Code, ShouldEqual, c.status)
			})
		}
	})
}

func TestCompareHandler(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDependencies{}

		Convey("When comparing a comma separated list", func() {
			w := serve(deps, http.MethodGet, "/compare?leagues=spring,%20winter,,")
			var body service.Comparison
			So(decode(w, &body), ShouldBeNil)

			Convey("Then blanks are dropped and names trimmed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.compared, ShouldResemble, [][]string{{"spring", "winter"}})
				So(body.Leagues, ShouldResemble, []string{"spring", "winter"})
			})
		})

		Convey("When no leagues are given", func() {
			w := serve(deps, http.MethodGet, "/compare")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.compared, ShouldBeEmpty)
			})
		})

		Convey("When too few leagues are given", func() {
			deps.compareErr = fmt.Errorf("%w: need at least two", league.ErrEventCount)
			w := serve(deps, http.MethodGet, "/compare?leagues=spring")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
