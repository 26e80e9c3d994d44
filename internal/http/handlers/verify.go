package handlers

import (
	"net/http"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/authz"
	"github.com/labforge/estudo-insights-back/internal/domain"
)

type verifyRequest struct {
	ResponseText string `json:"response_text"`
	// Evidence is the table assembled by the retrieval collaborator.
	// When absent, ProjectID (plus optional ExperimentIDs) selects stored
	// measurements to build it from.
	Evidence      *domain.EvidenceTable `json:"evidence,omitempty"`
	ProjectID     string                `json:"project_id,omitempty"`
	ExperimentIDs []string              `json:"experiment_ids,omitempty"`
}

type intentRequest struct {
	Query string `json:"query"`
}

// VerifyTabular checks that an answer's numbers trace back to evidence.
// A failed check is a 200 with verified=false; callers branch on policy.
func (api *API) VerifyTabular(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	request := verifyRequest{}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(request.ResponseText) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "response_text is required")
		return
	}

	if request.Evidence != nil {
		writeJSON(w, http.StatusOK, api.verification.Verify(request.ResponseText, *request.Evidence))
		return
	}

	if strings.TrimSpace(request.ProjectID) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "evidence or project_id is required")
		return
	}
	if !api.requireRole(w, r, request.ProjectID, authz.RoleViewer) {
		return
	}

	result, err := api.verification.VerifyAgainstProject(
		r.Context(),
		request.ResponseText,
		request.ProjectID,
		request.ExperimentIDs,
	)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to assemble evidence")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DetectIntent exposes the tabular-intent classifier so the answer
// generator can route queries before retrieval.
func (api *API) DetectIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	request := intentRequest{}
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	writeJSON(w, http.StatusOK, api.verification.DetectIntent(request.Query))
}
