package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/authz"
	"github.com/labforge/estudo-insights-back/internal/domain"
	"github.com/labforge/estudo-insights-back/internal/repository"
)

// JobsReader is the read-only slice of the jobs repository the API needs.
type JobsReader interface {
	GetJob(ctx context.Context, jobID string) (*domain.IndexingJob, error)
	CountByStatus(ctx context.Context, projectID string) (domain.JobStatusCounts, error)
}

func (api *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	jobID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/jobs/"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	job, err := api.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if err == repository.ErrNotFound {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}

	if !api.requireRole(w, r, job.ProjectID, authz.RoleViewer) {
		return
	}

	response := map[string]any{
		"job_id":      job.ID,
		"job_type":    job.Type,
		"source_type": job.SourceType,
		"source_id":   job.SourceID,
		"project_id":  job.ProjectID,
		"status":      job.Status,
		"priority":    job.Priority,
		"retry_count": job.RetryCount,
		"created_at":  job.CreatedAt,
	}
	if job.StartedAt != nil {
		response["started_at"] = job.StartedAt
	}
	if job.FinishedAt != nil {
		response["finished_at"] = job.FinishedAt
	}
	if strings.TrimSpace(job.ErrorMessage) != "" {
		response["error"] = map[string]any{
			"code":    "indexing_error",
			"message": job.ErrorMessage,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (api *API) JobStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	projectID := projectIDFromPath(r.URL.Path, "/jobs/stats")
	if projectID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "project_id is required")
		return
	}
	if !api.requireRole(w, r, projectID, authz.RoleViewer) {
		return
	}

	counts, err := api.jobs.CountByStatus(r.Context(), projectID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to count jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project_id": projectID,
		"queued":     counts.Queued,
		"running":    counts.Running,
		"done":       counts.Done,
		"error":      counts.Error,
	})
}
