package handlers

import (
	"context"
	"net/http"

	"github.com/labforge/estudo-insights-back/internal/worker"
)

// BatchRunner triggers one worker batch on demand.
type BatchRunner interface {
	RunBatch(ctx context.Context, batchSize int) (worker.BatchResult, error)
}

type runBatchRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// RunIndexBatch is the batch-trigger entrypoint used by schedules and
// manual operators. Zero claimable jobs reports processed: 0, not an error.
func (api *API) RunIndexBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	request := runBatchRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &request); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
			return
		}
	}
	if request.BatchSize <= 0 {
		request.BatchSize = worker.DefaultBatchSize
	}

	result, err := api.runner.RunBatch(r.Context(), request.BatchSize)
	if err != nil {
		if api.logger != nil {
			api.logger.Printf("index batch failed err=%v", err)
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to run index batch")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
