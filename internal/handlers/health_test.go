package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policybot/internal/index"
)

func TestHealthHandler(t *testing.T) {
	built := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(built, index.DatabaseFile), nil, 0o644))

	tests := []struct {
		name       string
		indexPath  string
		wantStatus int
		wantState  string
		wantCheck  string
		wantIssues []string
	}{
		{
			name:       "index present",
			indexPath:  built,
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantCheck:  "ok",
		},
		{
			name:       "index missing",
			indexPath:  filepath.Join(t.TempDir(), "nothing_here"),
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
			wantCheck:  "missing",
			wantIssues: []string{"index_missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			NewHealthHandler(tt.indexPath).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantCheck, resp.Checks["index"])
			assert.Equal(t, tt.wantIssues, resp.Issues)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestRootHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewRootHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"PolicyBot API is running"}`, w.Body.String())
}
