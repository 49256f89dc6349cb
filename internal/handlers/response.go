package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Human readable message
	Error string `json:"error"`
	// Error kind, e.g. "InvalidQuery" or "IndexNotFound"
	Kind string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, kind, message string) {
	_ = writeJSON(w, statusCode, ErrorResponse{Error: message, Kind: kind})
}
