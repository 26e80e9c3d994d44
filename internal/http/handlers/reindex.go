package handlers

import (
	"net/http"

	"github.com/labforge/estudo-insights-back/internal/authz"
)

func (api *API) Reindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	projectID := projectIDFromPath(r.URL.Path, "/reindex")
	if projectID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "project_id is required")
		return
	}
	if !api.requireRole(w, r, projectID, authz.RoleManager) {
		return
	}

	result, err := api.reindex.Reindex(r.Context(), projectID)
	if err != nil {
		if api.logger != nil {
			api.logger.Printf("reindex failed project=%s err=%v", projectID, err)
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to rebuild project index")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
