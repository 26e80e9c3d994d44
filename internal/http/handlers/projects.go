package handlers

import (
	"net/http"
	"strings"
)

// ProjectRoutes dispatches /v1/projects/{id}/... suffixes the stdlib mux
// cannot pattern-match on its own.
func (api *API) ProjectRoutes(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	slash := strings.Index(trimmed, "/")
	if slash <= 0 {
		writeError(w, r, http.StatusNotFound, "not_found", "unknown project route")
		return
	}

	switch trimmed[slash:] {
	case "/reindex":
		api.Reindex(w, r)
	case "/trends/compute":
		api.ComputeTrends(w, r)
	case "/trends":
		api.TrendsSummary(w, r)
	case "/jobs/stats":
		api.JobStats(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "unknown project route")
	}
}
