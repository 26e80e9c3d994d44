package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labforge/estudo-insights-back/internal/authz"
	"github.com/labforge/estudo-insights-back/internal/http/middleware"
	"github.com/labforge/estudo-insights-back/internal/service"
)

var errInvalidPayload = errors.New("invalid payload")

type API struct {
	reindex      *service.ReindexService
	trends       *service.TrendsService
	verification *service.VerificationService
	runner       BatchRunner
	jobs         JobsReader
	roles        authz.RoleChecker
	logger       *log.Logger
}

type APIDependencies struct {
	Reindex      *service.ReindexService
	Trends       *service.TrendsService
	Verification *service.VerificationService
	Runner       BatchRunner
	Jobs         JobsReader
	Roles        authz.RoleChecker
	Logger       *log.Logger
}

func NewAPI(deps APIDependencies) *API {
	return &API{
		reindex:      deps.Reindex,
		trends:       deps.Trends,
		verification: deps.Verification,
		runner:       deps.Runner,
		jobs:         deps.Jobs,
		roles:        deps.Roles,
		logger:       deps.Logger,
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}

// userID identifies the caller behind the bearer gate; identity is asserted
// by the surrounding app, this service only forwards it to the role check.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

// requireRole enforces the capability gate before any core logic runs.
// Returns false after writing the error response.
func (api *API) requireRole(w http.ResponseWriter, r *http.Request, projectID string, minRole authz.Role) bool {
	allowed, err := api.roles.HasRole(r.Context(), userID(r), projectID, minRole)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to check project role")
		return false
	}
	if !allowed {
		writeError(w, r, http.StatusForbidden, "forbidden", "insufficient project role")
		return false
	}
	return true
}

// projectIDFromPath extracts {id} from /v1/projects/{id}/<suffix>.
func projectIDFromPath(path, suffix string) string {
	trimmed := strings.TrimPrefix(path, "/v1/projects/")
	trimmed = strings.TrimSuffix(trimmed, suffix)
	return strings.TrimSpace(strings.Trim(trimmed, "/"))
}
