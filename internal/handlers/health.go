package handlers

import (
	"net/http"
	"time"

	"policybot/internal/contextutil"
	"policybot/internal/index"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	indexPath string
	exists    func(dir string) bool
}

// NewHealthHandler creates a HealthHandler that checks the index at indexPath.
func NewHealthHandler(indexPath string) *HealthHandler {
	return &HealthHandler{
		indexPath: indexPath,
		exists:    index.Exists,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK if healthy, 503 Service Unavailable when the index has not been built.
//
// swagger:route GET /health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Index is present
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Index is missing
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checks := make(map[string]string)
	var issues []string

	dir, err := index.ResolvePath(h.indexPath)
	if err == nil && h.exists(dir) {
		checks["index"] = "ok"
	} else {
		logger.WarnContext(ctx, "policy index missing", "path", h.indexPath)
		checks["index"] = "missing"
		issues = append(issues, "index_missing")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	}
	if err := writeJSON(w, httpStatus, response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
