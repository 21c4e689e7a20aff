package api

import (
	"fmt"
	"net/http"
	"strings"
)

// CompareHandler handles league comparisons.
type CompareHandler struct {
	deps Dependencies
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps Dependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompare handles GET /compare?leagues=a,b[,c].
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	names := splitList(r.URL.Query().Get("leagues"))
	if len(names) == 0 {
		writeFailure(w, fmt.Errorf("%w: missing leagues", ErrBadRequest))
		return
	}

	c, err := h.deps.Compare(r.Context(), names)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
