// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/songleague/internal/adapters/loader"
	"github.com/okian/songleague/internal/adapters/mq/queue"
	"github.com/okian/songleague/internal/adapters/repository"
	service "github.com/okian/songleague/internal/app"
	"github.com/okian/songleague/internal/domain/dataset"
	"github.com/okian/songleague/internal/domain/league"
	"github.com/okian/songleague/internal/domain/report"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine.
type Dependencies interface {
	StatsProvider

	// Leagues lists available leagues.
	Leagues(ctx context.Context) ([]service.LeagueStatus, error)
	// Report returns the full report of one league.
	Report(ctx context.Context, league string) (*report.Report, error)
	// Submit queues a league for recomputation. Returns false when it is
	// already queued.
	Submit(ctx context.Context, league string, force bool) (bool, error)
	// Compare compares two or more leagues.
	Compare(ctx context.Context, leagues []string) (*service.Comparison, error)
}

// Server wires HTTP routes for the league API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	leaguesHandler *LeaguesHandler
	compareHandler *CompareHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		leaguesHandler: NewLeaguesHandler(deps),
		compareHandler: NewCompareHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)
	r.HandleFunc("/compare", MetricsMiddleware(s.compareHandler.HandleCompare, "compare")).Methods(http.MethodGet)

	r.HandleFunc("/leagues", MetricsMiddleware(s.leaguesHandler.HandleList, "leagues")).Methods(http.MethodGet)
	r.HandleFunc("/leagues/{league}", MetricsMiddleware(s.leaguesHandler.HandleReport, "league")).Methods(http.MethodGet)
	r.HandleFunc("/leagues/{league}/refresh", MetricsMiddleware(s.leaguesHandler.HandleRefresh, "refresh")).Methods(http.MethodPost)
	r.HandleFunc("/leagues/{league}/{table}", MetricsMiddleware(s.leaguesHandler.HandleTable, "table")).Methods(http.MethodGet)
}

// Router returns a router with every route registered.
func (s *Server) Router(ctx context.Context) *mux.Router {
	r := mux.NewRouter()
	s.Register(ctx, r)
	return r
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates an engine error to its HTTP status.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidLeague),
		errors.Is(err, league.ErrEventCount):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, dataset.ErrMalformed),
		errors.Is(err, loader.ErrMissingColumn),
		errors.Is(err, loader.ErrBadRow):
		writeError(w, http.StatusUnprocessableEntity, "malformed_league", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// isNotFound reports whether err means the requested league or entity does
// not exist.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, service.ErrUnknownLeague) ||
		errors.Is(err, loader.ErrLeagueNotFound) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, dataset.ErrEntityNotFound)
}
