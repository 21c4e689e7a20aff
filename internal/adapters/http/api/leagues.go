package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/songleague/internal/domain/report"
)

// Report tables served under /leagues/{league}/{table}.
const (
	TableSongs         = "songs"
	TableVoters        = "voters"
	TableSimilarity    = "similarity"
	TableSubmitters    = "submitters"
	TableRelationships = "relationships"
	TableNetwork       = "network"
	TableTrends        = "trends"
	TableComments      = "comments"
)

// LeaguesHandler serves league listings, reports and report tables.
type LeaguesHandler struct {
	deps Dependencies
}

// NewLeaguesHandler creates a new leagues handler.
func NewLeaguesHandler(deps Dependencies) *LeaguesHandler {
	return &LeaguesHandler{deps: deps}
}

// HandleList handles GET /leagues.
func (h *LeaguesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.deps.Leagues(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leagues)
}

// HandleReport handles GET /leagues/{league}.
func (h *LeaguesHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Report(r.Context(), mux.Vars(r)["league"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleTable handles GET /leagues/{league}/{table}.
func (h *LeaguesHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	table := vars["table"]
	if !knownTable(table) {
		writeFailure(w, fmt.Errorf("%w: table %q", ErrNotFound, table))
		return
	}

	rep, err := h.deps.Report(r.Context(), vars["league"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tableOf(rep, table))
}

// HandleRefresh handles POST /leagues/{league}/refresh. The optional force
// query parameter bypasses the report cache.
func (h *LeaguesHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeFailure(w, fmt.Errorf("%w: force must be a boolean", ErrBadRequest))
			return
		}
		force = b
	}

	queued, err := h.deps.Submit(r.Context(), mux.Vars(r)["league"], force)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: !queued})
}

func knownTable(name string) bool {
	switch name {
	case TableSongs, TableVoters, TableSimilarity, TableSubmitters,
		TableRelationships, TableNetwork, TableTrends, TableComments:
		return true
	}
	return false
}

func tableOf(rep *report.Report, name string) any {
	switch name {
	case TableSongs:
		return rep.Songs
	case TableVoters:
		return rep.Voters
	case TableSimilarity:
		return rep.Similarity
	case TableSubmitters:
		return rep.Submitters
	case TableRelationships:
		return rep.Relationships
	case TableNetwork:
		return rep.Network
	case TableComments:
		return rep.Comments
	default:
		return rep.Trends
	}
}
