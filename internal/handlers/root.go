package handlers

import (
	"net/http"

	"policybot/internal/contextutil"
)

// StatusMessage is the body of GET /.
//
// swagger:model StatusMessage
type StatusMessage struct {
	Msg string `json:"msg"`
}

// RootHandler reports that the API is up.
type RootHandler struct{}

// NewRootHandler creates a new RootHandler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP handles GET /.
//
// swagger:route GET / root
//
// # Liveness message
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/StatusMessage"
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := writeJSON(w, http.StatusOK, StatusMessage{Msg: "PolicyBot API is running"}); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
