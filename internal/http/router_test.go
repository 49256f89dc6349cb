package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"policybot/internal/service"
	"policybot/internal/service/mocks"
)

func newTestRouter(t *testing.T, svc service.PolicyService) http.Handler {
	t.Helper()
	return NewRouter(&Deps{
		PolicyService: svc,
		IndexPath:     filepath.Join(t.TempDir(), "missing_index"),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRouter_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockPolicyService(ctrl)
	mockService.EXPECT().
		Ask(gomock.Any(), service.AskRequest{Query: "vacation", TopK: 3}).
		Return(service.Answer{Query: "vacation", Summary: "s", TopK: []string{"t"}}, nil)

	router := newTestRouter(t, mockService)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET root", http.MethodGet, "/", "", http.StatusOK},
		{"GET health without index", http.MethodGet, "/health", "", http.StatusServiceUnavailable},
		{"POST ask", http.MethodPost, "/ask", `{"query":"vacation"}`, http.StatusOK},
		{"GET ask not allowed", http.MethodGet, "/ask", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/chat", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_RootMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newTestRouter(t, mocks.NewMockPolicyService(ctrl))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["msg"] != "PolicyBot API is running" {
		t.Errorf("GET / msg = %q", body["msg"])
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newTestRouter(t, mocks.NewMockPolicyService(ctrl))

	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockPolicyService(ctrl)
	mockService.EXPECT().Ask(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, service.AskRequest) (service.Answer, error) { panic("boom") },
	)
	router := newTestRouter(t, mockService)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
