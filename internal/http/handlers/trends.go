package handlers

import (
	"net/http"

	"github.com/labforge/estudo-insights-back/internal/authz"
)

func (api *API) ComputeTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	projectID := projectIDFromPath(r.URL.Path, "/trends/compute")
	if projectID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "project_id is required")
		return
	}
	if !api.requireRole(w, r, projectID, authz.RoleManager) {
		return
	}

	result, err := api.trends.Compute(r.Context(), projectID)
	if err != nil {
		if api.logger != nil {
			api.logger.Printf("trend computation failed project=%s err=%v", projectID, err)
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to compute trends")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":              result.ProjectID,
		"trends_detected":         result.TrendsDetected,
		"insights_created":        result.InsightsCreated,
		"metrics_analyzed":        result.MetricsAnalyzed,
		"measurements_considered": result.MeasurementsConsidered,
	})
}

func (api *API) TrendsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	projectID := projectIDFromPath(r.URL.Path, "/trends")
	if projectID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "project_id is required")
		return
	}
	if !api.requireRole(w, r, projectID, authz.RoleViewer) {
		return
	}

	result, err := api.trends.Summary(r.Context(), projectID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load trends")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
