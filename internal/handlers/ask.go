package handlers

import (
	"errors"
	"net/http"

	"policybot/internal/contextutil"
	"policybot/internal/service"
)

// Default and maximum number of chunks a request may retrieve.
const (
	DefaultTopK = 3
	MaxTopK     = 10
)

// AskHandler handles HTTP requests for policy questions.
type AskHandler struct {
	policyService service.PolicyService
	defaultTopK   int
	maxTopK       int
}

// NewAskHandler creates a new AskHandler. Non-positive limits use DefaultTopK and MaxTopK.
func NewAskHandler(policyService service.PolicyService, defaultTopK, maxTopK int) *AskHandler {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	return &AskHandler{
		policyService: policyService,
		defaultTopK:   defaultTopK,
		maxTopK:       maxTopK,
	}
}

// ServeHTTP handles HTTP requests for policy questions.
//
// swagger:route POST /ask askPolicy
//
// # Retrieve and summarize policies
//
// Accepts a JSON body {"query": "...", "top_k": 3} or the same fields form-encoded.
//
// ---
// consumes:
// - application/json
// - application/x-www-form-urlencoded
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Summary of the best matching policy and the retrieved texts
//	'400':
//	  description: Empty query or top_k below 1
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'422':
//	  description: No query in the request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Index missing or internal error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	in, err := ParseAskInput(r, h.defaultTopK, h.maxTopK)
	if err != nil {
		logger.WarnContext(ctx, "invalid ask request", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "InvalidRequest", err.Error())
		return
	}

	answer, err := h.policyService.Ask(ctx, service.AskRequest{
		Query: in.Query,
		TopK:  in.TopK,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.InfoContext(ctx, "policy question answered", "source", in.Source, "top_k", in.TopK, "results", len(answer.TopK))
	if err := writeJSON(w, http.StatusOK, answer); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleServiceError maps service errors to HTTP status codes.
func (h *AskHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	kind := service.Kind(err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "rejected ask request", "field", validationErr.Field, "kind", kind)
		writeError(w, http.StatusBadRequest, kind, validationErr.Message)
		return
	}

	logger.ErrorContext(ctx, "service error", "kind", kind, "error", err)
	if errors.Is(err, service.ErrIndexNotFound) {
		writeError(w, http.StatusInternalServerError, kind, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, kind, "Failed to answer policy question")
}
